// Package pyannote implements the diarize.Provider interface against a
// pyannote.audio HTTP sidecar.
//
// The sidecar is a small Python service wrapping the pyannote speaker
// diarization pipeline; it exposes GET /health and POST /diarize (multipart
// audio upload, JSON segment list back). Running the model behind HTTP keeps
// the Python dependency out of this process entirely.
package pyannote

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
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yamadori/gijiroku/pkg/provider/diarize"
	"github.com/yamadori/gijiroku/pkg/types"
)

const (
	defaultBaseURL = "http://localhost:8388"

	// defaultTimeout bounds one whole-file diarization request. The
	// pyannote pipeline runs roughly at real time on CPU, so long meetings
	// need long timeouts.
	defaultTimeout = 30 * time.Minute
)

// Compile-time assertion that Provider implements diarize.Provider.
var _ diarize.Provider = (*Provider)(nil)

// Provider implements diarize.Provider using the pyannote HTTP sidecar.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client (useful for tests and for callers
// that need custom timeouts).
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// New creates a Provider talking to the sidecar at baseURL (default
// http://localhost:8388).
func New(baseURL string, opts ...Option) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// IsAvailable checks whether the sidecar answers its health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// sidecarResponse is the JSON shape returned by POST /diarize.
type sidecarResponse struct {
	Segments []struct {
		SpeakerID string  `json:"speaker_id"`
		StartTime float64 `json:"start_time"`
		EndTime   float64 `json:"end_time"`
	} `json:"segments"`
	NumSpeakers int    `json:"num_speakers"`
	Error       string `json:"error,omitempty"`
}

// Diarize uploads the audio file to the sidecar and returns its speaker
// segments ordered by start time.
func (p *Provider) Diarize(ctx context.Context, audioPath string, opts diarize.Options) ([]types.DiarizationSegment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("pyannote: open audio %q: %w", audioPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("pyannote: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("pyannote: copy audio data: %w", err)
	}

	if opts.SpeakerHint > 0 {
		_ = mw.WriteField("num_speakers", strconv.Itoa(opts.SpeakerHint))
	}
	if opts.MinSpeakers > 0 {
		_ = mw.WriteField("min_speakers", strconv.Itoa(opts.MinSpeakers))
	}
	if opts.MaxSpeakers > 0 {
		_ = mw.WriteField("max_speakers", strconv.Itoa(opts.MaxSpeakers))
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("pyannote: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/diarize", &body)
	if err != nil {
		return nil, fmt.Errorf("pyannote: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pyannote: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pyannote: sidecar returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("pyannote: parse JSON response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("pyannote: sidecar error: %s", result.Error)
	}

	segments := make([]types.DiarizationSegment, 0, len(result.Segments))
	for _, s := range result.Segments {
		if s.SpeakerID == "" || s.EndTime <= s.StartTime {
			continue
		}
		segments = append(segments, types.DiarizationSegment{
			Start:     s.StartTime,
			End:       s.EndTime,
			SpeakerID: s.SpeakerID,
		})
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	return segments, nil
}
