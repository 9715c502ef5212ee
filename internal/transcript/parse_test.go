package transcript_test

import (
	"strings"
	"testing"

	"github.com/yamadori/gijiroku/internal/transcript"
)

func TestParse_MultiLineManualEdit(t *testing.T) {
	t.Parallel()

	// A human has split a segment's text across several lines and added an
	// interior blank line; everything between the two headers belongs to the
	// first segment verbatim.
	text := "S1 (00:00)\nfirst line\nsecond line\n\nthird after a gap\n\nS2 (00:30)\nreply\n"

	tr, diags := transcript.Parse(text)
	if len(diags) != 0 {
		t.Fatalf("Parse() diagnostics = %v, want none", diags)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("Parse() returned %d segments, want 2", len(tr.Segments))
	}
	wantText := "first line\nsecond line\n\nthird after a gap"
	if tr.Segments[0].Text != wantText {
		t.Errorf("segment 0 text = %q, want %q", tr.Segments[0].Text, wantText)
	}
	if tr.Segments[1].Text != "reply" {
		t.Errorf("segment 1 text = %q, want %q", tr.Segments[1].Text, "reply")
	}
}

func TestParse_LabelContainingParentheses(t *testing.T) {
	t.Parallel()

	tr, diags := transcript.Parse("Tanaka (PM) (01:05)\nstatus update\n")
	if len(diags) != 0 {
		t.Fatalf("Parse() diagnostics = %v, want none", diags)
	}
	if len(tr.Segments) != 1 {
		t.Fatalf("Parse() returned %d segments, want 1", len(tr.Segments))
	}
	if got := tr.Segments[0].Speaker; got != "Tanaka (PM)" {
		t.Errorf("speaker = %q, want %q", got, "Tanaka (PM)")
	}
	if got := tr.Segments[0].Start; got != 65 {
		t.Errorf("start = %v, want 65", got)
	}
}

func TestParse_MalformedBlocksReportedNotFatal(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"stray text before any header",
		"",
		"S1 (00:00)", // header with no text
		"",
		"S2 (00:10)",
		"this one is fine",
		"",
	}, "\n")

	tr, diags := transcript.Parse(text)
	if len(tr.Segments) != 1 {
		t.Fatalf("Parse() returned %d segments, want 1: %+v", len(tr.Segments), tr.Segments)
	}
	if tr.Segments[0].Speaker != "S2" {
		t.Errorf("surviving segment speaker = %q, want %q", tr.Segments[0].Speaker, "S2")
	}
	if len(diags) != 2 {
		t.Fatalf("Parse() diagnostics = %v, want 2 entries", diags)
	}
}

func TestParse_NonHeaderTimestampLinesAreText(t *testing.T) {
	t.Parallel()

	// A malformed timestamp does not form a header; the line is segment text.
	tr, diags := transcript.Parse("S1 (00:00)\nS2 (0:7)\n")
	if len(diags) != 0 {
		t.Fatalf("Parse() diagnostics = %v, want none", diags)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "S2 (0:7)" {
		t.Errorf("Parse() = %+v, want single S1 segment with text %q", tr.Segments, "S2 (0:7)")
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	tr, diags := transcript.Parse("")
	if len(tr.Segments) != 0 || len(diags) != 0 {
		t.Errorf("Parse(\"\") = %+v, %v; want no segments, no diagnostics", tr.Segments, diags)
	}
}
