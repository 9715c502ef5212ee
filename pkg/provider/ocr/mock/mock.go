// Package mock provides a test double for the ocr.Provider interface.
//
// Set Text for a fixed result, or Results to map image paths to distinct
// texts. Every invocation is recorded in RecognizeCalls.
package mock

import (
	"context"
	"sync"

	"github.com/yamadori/gijiroku/pkg/provider/ocr"
)

// Provider is a mock implementation of ocr.Provider.
type Provider struct {
	mu sync.Mutex

	// Text is returned by Recognize for paths not present in Results.
	Text string

	// Results maps image paths to recognized text, taking precedence over
	// Text.
	Results map[string]string

	// RecognizeErr, if non-nil, is returned as the error from every
	// Recognize call.
	RecognizeErr error

	// Available is returned by IsAvailable. Defaults to false.
	Available bool

	// RecognizeCalls records the image path of every Recognize call.
	RecognizeCalls []string
}

// Recognize records the call and returns the configured text.
func (p *Provider) Recognize(ctx context.Context, imagePath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RecognizeCalls = append(p.RecognizeCalls, imagePath)
	if p.RecognizeErr != nil {
		return "", p.RecognizeErr
	}
	if text, ok := p.Results[imagePath]; ok {
		return text, nil
	}
	return p.Text, nil
}

// IsAvailable returns Available.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Available
}

// CallCount returns the number of Recognize calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.RecognizeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RecognizeCalls = nil
}

// Ensure Provider implements ocr.Provider at compile time.
var _ ocr.Provider = (*Provider)(nil)
