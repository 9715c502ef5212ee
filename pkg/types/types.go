// Package types defines the shared types used across all gijiroku packages.
//
// These types form the lingua franca between the collaborator providers
// (transcription, diarization, OCR), the segment aligner, and the transcript
// formatter. They are intentionally minimal — each package defines its own
// domain types, but cross-cutting data structures live here to avoid circular
// imports.
package types

import "time"

// UnknownSpeaker is the label assigned to transcription segments that no
// diarization segment covers. It survives into the persisted transcript until
// a renaming pass replaces it.
const UnknownSpeaker = "unknown"

// TranscriptionSegment is a timed piece of transcribed speech as produced by
// a transcription provider. Start and End are offsets in seconds from the
// beginning of the recording; Start < End. Segments arrive time-ordered but
// may contain gaps. The value is immutable once received.
type TranscriptionSegment struct {
	// Start is the segment start offset in seconds.
	Start float64

	// End is the segment end offset in seconds.
	End float64

	// Text is the transcribed speech, already whitespace-trimmed by the
	// provider.
	Text string
}

// DiarizationSegment is a timed speaker attribution as produced by a
// diarization provider. Segments for different speakers may be temporally
// adjacent but must not overlap; the aligner tolerates (and logs) contract
// violations. The value is immutable once received.
type DiarizationSegment struct {
	// Start is the segment start offset in seconds.
	Start float64

	// End is the segment end offset in seconds.
	End float64

	// SpeakerID is the provider-assigned anonymous speaker identifier
	// (e.g., "SPEAKER_01").
	SpeakerID string
}

// MergedSegment is one continuous speaker turn after alignment: one or more
// consecutive transcription segments attributed to the same speaker, with
// their texts joined in original order.
type MergedSegment struct {
	// Start is the first source segment's start offset in seconds.
	Start float64

	// End is the last source segment's end offset in seconds.
	End float64

	// Speaker is a diarization speaker identifier, or [UnknownSpeaker] when
	// no diarization segment covered the turn.
	Speaker string

	// Text is the concatenation of the source segments' texts, joined with a
	// single space, in original order.
	Text string
}

// Transcript is the in-memory view of a speaker-attributed transcript.
//
// After the initial formatting pass the persisted text file is the canonical
// representation; Transcript values are derived views reconstructed by
// parsing. There is no separate binary store.
type Transcript struct {
	// SourcePath is the path of the video the transcript was produced from.
	// Empty when the transcript was reconstructed by parsing.
	SourcePath string

	// Segments is the ordered sequence of merged speaker turns. Starts are
	// strictly non-decreasing and consecutive segments never overlap.
	Segments []MergedSegment

	// CreatedAt marks when the transcript was first produced. Zero when
	// reconstructed by parsing.
	CreatedAt time.Time
}

// SpeakerLabelMap maps placeholder speaker labels (diarization identifiers or
// numbered placeholders) to display names. It is supplied by the caller and
// never persisted — renaming mutates the transcript text directly.
type SpeakerLabelMap map[string]string
