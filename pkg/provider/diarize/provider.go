// Package diarize defines the Provider interface for speaker diarization
// backends.
//
// A diarization provider answers "who spoke when": it takes the prepared
// audio file and returns time-stamped segments labelled with opaque speaker
// identifiers (e.g., "SPEAKER_00"). Identifiers are stable within one call
// but carry no meaning across calls or files.
//
// Implementations must be safe for concurrent use.
package diarize

import (
	"context"

	"github.com/yamadori/gijiroku/pkg/types"
)

// Options carries per-call diarization parameters.
type Options struct {
	// SpeakerHint, when positive, tells the backend exactly how many
	// speakers to segment into. Zero lets the backend estimate.
	SpeakerHint int

	// MinSpeakers and MaxSpeakers bound the backend's estimate when
	// SpeakerHint is zero. Zero means unbounded.
	MinSpeakers int
	MaxSpeakers int
}

// Provider is the abstraction over any speaker diarization backend.
type Provider interface {
	// Diarize segments the audio file at audioPath by speaker and returns
	// the segments ordered by start time. Returned speaker identifiers are
	// opaque and non-empty.
	//
	// Errors are fatal to the current run: the provider does not retry
	// internally, and callers that want an unattributed transcript must
	// skip diarization explicitly rather than fall back on failure.
	Diarize(ctx context.Context, audioPath string, opts Options) ([]types.DiarizationSegment, error)

	// IsAvailable reports whether the backend is reachable and ready. A
	// false return predicts, but does not guarantee, that Diarize will
	// fail.
	IsAvailable(ctx context.Context) bool
}
