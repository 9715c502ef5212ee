// Package tesseract implements the ocr.Provider interface by shelling out
// to the tesseract binary.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/yamadori/gijiroku/pkg/provider/ocr"
)

const (
	defaultBinary = "tesseract"

	// defaultLanguages covers Latin and Japanese scripts, the two that
	// show up in the meeting platforms this tool targets.
	defaultLanguages = "jpn+eng"

	// Page segmentation mode 11 ("sparse text") suits name tags: small,
	// isolated text fragments scattered over a frame, no page structure.
	defaultPSM = "11"
)

// Compile-time assertion that Provider implements ocr.Provider.
var _ ocr.Provider = (*Provider)(nil)

// Provider implements ocr.Provider using the tesseract CLI.
type Provider struct {
	binary    string
	languages string
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithBinary overrides the tesseract binary path.
func WithBinary(path string) Option {
	return func(p *Provider) { p.binary = path }
}

// WithLanguages sets the tesseract language packs to use, in tesseract's
// "+"-joined form (e.g., "jpn+eng").
func WithLanguages(langs string) Option {
	return func(p *Provider) { p.languages = langs }
}

// New creates a tesseract-backed Provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		binary:    defaultBinary,
		languages: defaultLanguages,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// IsAvailable reports whether the tesseract binary is on PATH.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Recognize runs tesseract over the image and returns the recognized text
// with tesseract's own line breaks preserved.
func (p *Provider) Recognize(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		imagePath, "stdout",
		"-l", p.languages,
		"--psm", defaultPSM,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("tesseract: recognize %q: %s", imagePath, msg)
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}
