// Package mock provides a test double for the diarize.Provider interface.
//
// Pre-populate Segments with the diarization the test expects, or set
// DiarizeFunc for per-call behavior. Every invocation is recorded in
// DiarizeCalls for later inspection.
package mock

import (
	"context"
	"sync"

	"github.com/yamadori/gijiroku/pkg/provider/diarize"
	"github.com/yamadori/gijiroku/pkg/types"
)

// DiarizeCall records a single invocation of Provider.Diarize.
type DiarizeCall struct {
	// AudioPath is the audio file path passed to Diarize.
	AudioPath string
	// Opts are the options passed to Diarize.
	Opts diarize.Options
}

// Provider is a mock implementation of diarize.Provider.
type Provider struct {
	mu sync.Mutex

	// Segments is returned by Diarize when DiarizeFunc is nil.
	Segments []types.DiarizationSegment

	// DiarizeErr, if non-nil, is returned as the error from Diarize when
	// DiarizeFunc is nil.
	DiarizeErr error

	// DiarizeFunc, if non-nil, is invoked instead of returning
	// Segments/DiarizeErr.
	DiarizeFunc func(ctx context.Context, audioPath string, opts diarize.Options) ([]types.DiarizationSegment, error)

	// Available is returned by IsAvailable. Defaults to false; set it to
	// true in tests that expect the provider to be used.
	Available bool

	// DiarizeCalls records every call to Diarize in order.
	DiarizeCalls []DiarizeCall
}

// Diarize records the call and returns the configured result.
func (p *Provider) Diarize(ctx context.Context, audioPath string, opts diarize.Options) ([]types.DiarizationSegment, error) {
	p.mu.Lock()
	p.DiarizeCalls = append(p.DiarizeCalls, DiarizeCall{AudioPath: audioPath, Opts: opts})
	fn := p.DiarizeFunc
	segments, err := p.Segments, p.DiarizeErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, audioPath, opts)
	}
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// IsAvailable returns Available.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Available
}

// CallCount returns the number of Diarize calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.DiarizeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DiarizeCalls = nil
}

// Ensure Provider implements diarize.Provider at compile time.
var _ diarize.Provider = (*Provider)(nil)
