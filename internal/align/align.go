// Package align reconciles two independently time-stamped sequences — raw
// transcription segments and raw diarization segments — into one ordered,
// speaker-attributed sequence of merged speaker turns.
//
// Alignment proceeds in two passes:
//
//  1. Speaker assignment: each transcription segment is attributed to the
//     diarization segment it overlaps the most. Ties are broken in favour of
//     the diarization segment with the earlier start, which keeps the result
//     deterministic. Segments with no overlapping diarization coverage are
//     labeled [types.UnknownSpeaker] — coverage gaps are expected, not fatal.
//
//  2. Coalescing: consecutive segments that resolved to the same speaker are
//     folded into a single [types.MergedSegment]. Coalescing is driven purely
//     by speaker continuity; a temporal gap between two same-speaker segments
//     does not split the turn, because the transcription model itself may
//     produce gapped sub-segments within one utterance. Unknown-labeled
//     segments coalesce with each other but never merge into a named turn.
//
// Diarization segments for different speakers must not overlap. When they do
// (a violation of the provider contract), the aligner does not fail: the
// temporally earlier segment is treated as authoritative for the overlapping
// sub-interval, the anomaly is logged and counted in [Merge]'s second return
// value, and no transcription text is ever dropped.
//
// All functions are pure transformations over in-memory slices and are safe
// for concurrent use.
package align

import (
	"log/slog"
	"strings"

	"github.com/yamadori/gijiroku/pkg/types"
)

// Merge aligns transcription against diarization and returns the coalesced
// speaker turns plus the number of diarization contract violations that were
// tolerated. An empty transcription sequence yields an empty (nil) result,
// not an error.
//
// transcription must be time-ordered; diarization must be time-ordered and
// non-overlapping (violations are tolerated and counted as described in the
// package documentation). Neither input is mutated.
func Merge(transcription []types.TranscriptionSegment, diarization []types.DiarizationSegment) ([]types.MergedSegment, int) {
	diarization, anomalies := resolveOverlaps(diarization)
	return coalesce(transcription, assignSpeakers(transcription, diarization)), anomalies
}

// assignSpeakers returns, for each transcription segment, the speaker label
// of the diarization segment with the maximum overlap duration. Overlap of
// [t.Start, t.End) with [d.Start, d.End) is
// max(0, min(t.End, d.End) - max(t.Start, d.Start)).
func assignSpeakers(transcription []types.TranscriptionSegment, diarization []types.DiarizationSegment) []string {
	labels := make([]string, len(transcription))
	for i, t := range transcription {
		best := types.UnknownSpeaker
		bestOverlap := 0.0
		for _, d := range diarization {
			if d.Start >= t.End {
				// Diarization input is time-ordered; nothing later overlaps.
				break
			}
			overlap := min(t.End, d.End) - max(t.Start, d.Start)
			// Strict > keeps the earliest-start segment on equal overlap.
			if overlap > bestOverlap {
				bestOverlap = overlap
				best = d.SpeakerID
			}
		}
		labels[i] = best
	}
	return labels
}

// coalesce folds consecutive same-speaker transcription segments into merged
// turns. labels[i] is the resolved speaker of transcription[i].
func coalesce(transcription []types.TranscriptionSegment, labels []string) []types.MergedSegment {
	var merged []types.MergedSegment
	var texts []string

	flush := func() {
		if len(texts) == 0 {
			return
		}
		last := &merged[len(merged)-1]
		last.Text = strings.Join(texts, " ")
		texts = texts[:0]
	}

	for i, t := range transcription {
		if len(merged) > 0 && labels[i] == merged[len(merged)-1].Speaker {
			merged[len(merged)-1].End = t.End
			texts = append(texts, t.Text)
			continue
		}
		flush()
		merged = append(merged, types.MergedSegment{
			Start:   t.Start,
			End:     t.End,
			Speaker: labels[i],
		})
		texts = append(texts, t.Text)
	}
	flush()
	return merged
}

// resolveOverlaps enforces the non-overlap contract on diarization input.
// When segment i+1 starts before segment i ends, the earlier segment is
// authoritative for the contested sub-interval: the later segment's start is
// clipped forward to the earlier segment's end. Segments swallowed entirely
// are dropped. Each anomaly is logged once and counted.
//
// The input slice is not mutated; a clipped copy is returned only when an
// anomaly was found.
func resolveOverlaps(diarization []types.DiarizationSegment) ([]types.DiarizationSegment, int) {
	clean := true
	for i := 1; i < len(diarization); i++ {
		if diarization[i].Start < diarization[i-1].End {
			clean = false
			break
		}
	}
	if clean {
		return diarization, 0
	}

	anomalies := 0
	resolved := make([]types.DiarizationSegment, 0, len(diarization))
	for _, d := range diarization {
		if len(resolved) > 0 {
			prev := resolved[len(resolved)-1]
			if d.Start < prev.End {
				slog.Warn("diarization segments overlap; earlier segment wins",
					"speaker", d.SpeakerID,
					"start", d.Start,
					"clipped_to", prev.End,
					"prev_speaker", prev.SpeakerID,
				)
				anomalies++
				d.Start = prev.End
				if d.Start >= d.End {
					continue
				}
			}
		}
		resolved = append(resolved, d)
	}
	return resolved, anomalies
}
