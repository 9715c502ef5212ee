// Package transcript renders merged speaker turns into the canonical text
// transcript, parses that text back, and rewrites speaker labels in place.
//
// The persisted text file is the canonical representation of a transcript:
// in-memory [types.Transcript] values are derived views, reconstructed by
// parsing. The format is a sequence of blocks, one per speaker turn,
// separated by exactly one blank line:
//
//	<speakerLabel> (<mm:ss>)
//	<segment text>
//
//	<speakerLabel> (<mm:ss>)
//	<segment text>
//
// Parsing tolerates manual edits: any text between a header line and the next
// header is that segment's text verbatim, so a human can correct transcribed
// speech without breaking the structure.
package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/yamadori/gijiroku/pkg/types"
)

// FormatTimestamp renders a start offset in seconds as zero-padded mm:ss.
// The minute field keeps increasing past 59:59 (e.g. 75 minutes renders as
// "75:00"); there is no hour field. Sub-second precision is truncated.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Render produces the canonical text representation of tr. Blocks appear in
// ascending start order (the order of tr.Segments); the output ends with a
// single trailing newline.
func Render(tr *types.Transcript) string {
	var b strings.Builder
	for i, seg := range tr.Segments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n%s\n", seg.Speaker, FormatTimestamp(seg.Start), seg.Text)
	}
	return b.String()
}

// New builds a Transcript from an aligned merge pass. createdAt is recorded
// as the transcript's creation time; segments are used as-is and must already
// be in ascending start order.
func New(sourcePath string, segments []types.MergedSegment, createdAt time.Time) *types.Transcript {
	return &types.Transcript{
		SourcePath: sourcePath,
		Segments:   segments,
		CreatedAt:  createdAt,
	}
}
