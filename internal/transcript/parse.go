package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yamadori/gijiroku/pkg/types"
)

// headerRE matches a block header line: a speaker label followed by a
// parenthesised mm:ss timestamp. The label capture is greedy so a label may
// itself contain parentheses; the timestamp is always the last group on the
// line. The minute field may exceed two digits (long recordings).
var headerRE = regexp.MustCompile(`^(.+) \((\d{2,}):([0-5][0-9])\)$`)

// Diagnostic describes one malformed block encountered while parsing a
// transcript. Parsing never aborts on a malformed block; the rest of the
// file still parses so a manual edit with a minor mistake does not destroy
// the transcript.
type Diagnostic struct {
	// Line is the 1-based line number where the problem starts.
	Line int

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("transcript: line %d: %s", d.Line, d.Message)
}

// Parse reconstructs a Transcript from its canonical text representation.
//
// Every line matching the header grammar starts a new block; all lines
// between a header and the next header are that block's text verbatim, with
// leading and trailing blank lines stripped. Text appearing before the first
// header, and headers with no text at all, are reported as diagnostics and
// excluded from the result.
//
// The returned Transcript carries no source path or creation time (the text
// form does not persist them), and segment End offsets are zero — the text
// form records only start timestamps.
func Parse(text string) (*types.Transcript, []Diagnostic) {
	var (
		segments []types.MergedSegment
		diags    []Diagnostic

		current     *types.MergedSegment
		currentLine int
		textLines   []string
		orphanLine  int
	)

	flush := func() {
		if current == nil {
			return
		}
		body := trimBlankEdges(textLines)
		if len(body) == 0 {
			diags = append(diags, Diagnostic{Line: currentLine, Message: fmt.Sprintf("header %q has no text", current.Speaker)})
		} else {
			current.Text = strings.Join(body, "\n")
			segments = append(segments, *current)
		}
		current = nil
		textLines = nil
	}

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		if m := headerRE.FindStringSubmatch(line); m != nil {
			flush()
			minutes, _ := strconv.Atoi(m[2])
			secs, _ := strconv.Atoi(m[3])
			current = &types.MergedSegment{
				Speaker: m[1],
				Start:   float64(minutes*60 + secs),
			}
			currentLine = lineNo
			continue
		}
		if current != nil {
			textLines = append(textLines, line)
			continue
		}
		if strings.TrimSpace(line) != "" && orphanLine == 0 {
			orphanLine = lineNo
		}
	}
	flush()

	if orphanLine != 0 {
		diags = append(diags, Diagnostic{Line: orphanLine, Message: "text before first header"})
	}
	return &types.Transcript{Segments: segments}, diags
}

// trimBlankEdges drops leading and trailing blank lines, keeping interior
// blank lines verbatim.
func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
