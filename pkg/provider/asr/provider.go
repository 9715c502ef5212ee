// Package asr defines the Provider interface for batch audio transcription
// backends.
//
// A transcription provider takes a prepared audio file (mono 16 kHz WAV, see
// the media package) and returns the full, time-ordered sequence of
// transcription segments in one blocking call. The pipeline is batch by
// design — there is no streaming session, no partial results.
//
// Implementations must be safe for concurrent use.
package asr

import (
	"context"
	"fmt"

	"github.com/yamadori/gijiroku/pkg/types"
)

// ModelPreset is a closed set of quality/speed presets understood by the
// whisper-family backends. Hosted backends map presets onto their own model
// identifiers as documented per implementation.
type ModelPreset string

const (
	PresetTiny    ModelPreset = "tiny"
	PresetBase    ModelPreset = "base"
	PresetSmall   ModelPreset = "small"
	PresetMedium  ModelPreset = "medium"
	PresetLarge   ModelPreset = "large"
	PresetLargeV3 ModelPreset = "large-v3"
	PresetTurbo   ModelPreset = "turbo"
)

// IsValid reports whether p is a recognised preset.
func (p ModelPreset) IsValid() bool {
	switch p {
	case PresetTiny, PresetBase, PresetSmall, PresetMedium, PresetLarge, PresetLargeV3, PresetTurbo:
		return true
	}
	return false
}

// ParsePreset converts a user-supplied model name into a [ModelPreset].
func ParsePreset(s string) (ModelPreset, error) {
	p := ModelPreset(s)
	if !p.IsValid() {
		return "", fmt.Errorf("asr: unknown model preset %q (valid: tiny, base, small, medium, large, large-v3, turbo)", s)
	}
	return p, nil
}

// Options carries per-call transcription parameters.
type Options struct {
	// Preset selects the quality/speed trade-off. Empty means the backend's
	// configured default.
	Preset ModelPreset

	// Language is the expected audio language (e.g., "ja"). Empty lets the
	// backend auto-detect where supported.
	Language string

	// Fast relaxes accuracy settings (narrower decode search) for backends
	// that expose them. Backends without such a knob ignore it.
	Fast bool
}

// Provider is the abstraction over any batch transcription backend.
type Provider interface {
	// Transcribe decodes the audio file at audioPath and returns its
	// time-ordered transcription segments. The returned segments have
	// whitespace-trimmed text and Start < End, with one exception: a backend
	// that produced text but could not recover per-segment timings returns a
	// single segment with Start == End == 0. Consumers must tolerate that
	// untimed shape.
	//
	// Errors are fatal to the current run: the provider does not retry
	// internally, the caller decides whether to re-invoke with different
	// parameters.
	Transcribe(ctx context.Context, audioPath string, opts Options) ([]types.TranscriptionSegment, error)
}
