// Package mock provides a test double for the asr.Provider interface.
//
// Pre-populate Segments with the transcription the test expects, or set
// TranscribeFunc for per-call behavior. Every invocation is recorded in
// TranscribeCalls for later inspection.
package mock

import (
	"context"
	"sync"

	"github.com/yamadori/gijiroku/pkg/provider/asr"
	"github.com/yamadori/gijiroku/pkg/types"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// AudioPath is the audio file path passed to Transcribe.
	AudioPath string
	// Opts are the options passed to Transcribe.
	Opts asr.Options
}

// Provider is a mock implementation of asr.Provider.
type Provider struct {
	mu sync.Mutex

	// Segments is returned by Transcribe when TranscribeFunc is nil.
	Segments []types.TranscriptionSegment

	// TranscribeErr, if non-nil, is returned as the error from Transcribe
	// when TranscribeFunc is nil.
	TranscribeErr error

	// TranscribeFunc, if non-nil, is invoked instead of returning
	// Segments/TranscribeErr.
	TranscribeFunc func(ctx context.Context, audioPath string, opts asr.Options) ([]types.TranscriptionSegment, error)

	// TranscribeCalls records every call to Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the configured result.
func (p *Provider) Transcribe(ctx context.Context, audioPath string, opts asr.Options) ([]types.TranscriptionSegment, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{AudioPath: audioPath, Opts: opts})
	fn := p.TranscribeFunc
	segments, err := p.Segments, p.TranscribeErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, audioPath, opts)
	}
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// CallCount returns the number of Transcribe calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranscribeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}

// Ensure Provider implements asr.Provider at compile time.
var _ asr.Provider = (*Provider)(nil)
