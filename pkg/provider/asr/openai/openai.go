// Package openai provides a transcription backend backed by the OpenAI
// audio transcription API.
//
// The hosted whisper-1 model is the only OpenAI transcription model that
// returns verbose JSON with per-segment timestamps, which the aligner needs,
// so [asr.Options.Preset] is ignored here — quality presets are a property
// of the local whisper backends.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/yamadori/gijiroku/pkg/provider/asr"
	"github.com/yamadori/gijiroku/pkg/types"
)

// Compile-time assertion that Provider implements asr.Provider.
var _ asr.Provider = (*Provider)(nil)

// Provider implements asr.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL (for
// OpenAI-compatible gateways).
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout. Defaults to 30 minutes —
// uploading and transcribing a long meeting is slow.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI transcription Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{timeout: 30 * time.Minute}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(cfg.timeout),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Provider{client: oai.NewClient(reqOpts...)}, nil
}

// verboseTranscription is the verbose_json response shape. The SDK's typed
// response carries only the flat text, so the raw JSON is decoded again to
// recover the segment timings.
type verboseTranscription struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Text string `json:"text"`
}

// Transcribe uploads the audio file and returns the per-segment timings from
// the verbose transcription response.
func (p *Provider) Transcribe(ctx context.Context, audioPath string, opts asr.Options) ([]types.TranscriptionSegment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("openai: open audio %q: %w", audioPath, err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  oai.AudioModelWhisper1,
		ResponseFormat:         oai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if opts.Language != "" {
		params.Language = oai.String(opts.Language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: transcription request: %w", err)
	}

	var verbose verboseTranscription
	if err := json.Unmarshal([]byte(resp.RawJSON()), &verbose); err != nil {
		return nil, fmt.Errorf("openai: parse verbose transcription: %w", err)
	}

	segments := make([]types.TranscriptionSegment, 0, len(verbose.Segments))
	for _, s := range verbose.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, types.TranscriptionSegment{Start: s.Start, End: s.End, Text: text})
	}
	if len(segments) == 0 && strings.TrimSpace(verbose.Text) != "" {
		segments = append(segments, types.TranscriptionSegment{Text: strings.TrimSpace(verbose.Text)})
	}
	return segments, nil
}
