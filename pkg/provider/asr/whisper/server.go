// Package whisper provides transcription backends built on whisper.cpp:
// a native CGO-bound provider and a REST client for a running
// whisper-server binary (POST /inference).
//
// Both are batch providers — the whole audio file goes in, the full
// time-stamped segment list comes out.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yamadori/gijiroku/pkg/provider/asr"
	"github.com/yamadori/gijiroku/pkg/types"
)

const (
	defaultServerURL = "http://localhost:8080"

	// defaultTimeout bounds one whole-file inference request. Long meetings
	// on slow hardware take a while; an hour is generous but finite.
	defaultTimeout = time.Hour
)

// Compile-time assertion that ServerProvider implements asr.Provider.
var _ asr.Provider = (*ServerProvider)(nil)

// ServerProvider implements asr.Provider against a whisper-server instance.
// The server is started with a fixed model, so [asr.Options.Preset] is
// forwarded only as a hint via the "model" form field; servers running a
// single model ignore it.
type ServerProvider struct {
	serverURL  string
	language   string
	httpClient *http.Client
}

// ServerOption is a functional option for configuring a ServerProvider.
type ServerOption func(*ServerProvider)

// WithServerLanguage sets the default language code forwarded to the server.
func WithServerLanguage(lang string) ServerOption {
	return func(p *ServerProvider) { p.language = lang }
}

// WithServerHTTPClient replaces the HTTP client (useful for tests and for
// callers that need custom timeouts).
func WithServerHTTPClient(c *http.Client) ServerOption {
	return func(p *ServerProvider) { p.httpClient = c }
}

// NewServer creates a ServerProvider talking to serverURL (default
// http://localhost:8080).
func NewServer(serverURL string, opts ...ServerOption) *ServerProvider {
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	p := &ServerProvider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// inferenceResponse is the verbose_json response shape of whisper-server.
type inferenceResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file to the /inference endpoint and returns
// the server's time-stamped segments.
func (p *ServerProvider) Transcribe(ctx context.Context, audioPath string, opts asr.Options) ([]types.TranscriptionSegment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: open audio %q: %w", audioPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("whisper: copy audio data: %w", err)
	}

	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("whisper: write response_format field: %w", err)
	}
	lang := opts.Language
	if lang == "" {
		lang = p.language
	}
	if lang != "" {
		if err := mw.WriteField("language", lang); err != nil {
			return nil, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if opts.Preset != "" {
		if err := mw.WriteField("model", string(opts.Preset)); err != nil {
			return nil, fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if opts.Fast {
		// Greedy decoding: the fastest search the server offers.
		if err := mw.WriteField("beam_size", "1"); err != nil {
			return nil, fmt.Errorf("whisper: write beam_size field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := p.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("whisper: server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	segments := make([]types.TranscriptionSegment, 0, len(result.Segments))
	for _, s := range result.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, types.TranscriptionSegment{Start: s.Start, End: s.End, Text: text})
	}

	// Servers configured without timestamps return only the flat text;
	// surface it as a single untimed segment rather than losing it.
	if len(segments) == 0 && strings.TrimSpace(result.Text) != "" {
		segments = append(segments, types.TranscriptionSegment{Text: strings.TrimSpace(result.Text)})
	}
	return segments, nil
}
