package transcript

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yamadori/gijiroku/pkg/types"
)

// RenameResult reports what a renaming pass did.
type RenameResult struct {
	// Replaced counts replacements per map key (only keys that matched at
	// least one header appear).
	Replaced map[string]int

	// Unused lists map keys that matched no header anywhere in the
	// transcript, sorted. An unused key is advisory, never an error.
	Unused []string
}

// Rename rewrites speaker labels in a persisted transcript text.
//
// Only header lines are candidates; a header's label must equal a map key
// exactly for the whole label (so "Speaker1" never matches inside
// "Speaker10"). Every other byte of the input — timestamps, segment text,
// blank lines, headers with unmatched labels — passes through unchanged.
//
// Each header is rewritten at most once per call, with the mapped value
// taken directly from the map: a replacement value that happens to equal
// another map key is not substituted again. Applying the same map a second
// time is therefore a no-op for all headers rewritten by the first call.
func Rename(text string, labels types.SpeakerLabelMap) (string, RenameResult) {
	res := RenameResult{Replaced: make(map[string]int)}
	if len(labels) == 0 {
		return text, res
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := headerRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, ok := labels[m[1]]
		if !ok {
			continue
		}
		// Keep the timestamp bytes exactly as they were.
		lines[i] = name + line[len(m[1]):]
		res.Replaced[m[1]]++
	}

	for key := range labels {
		if res.Replaced[key] == 0 {
			res.Unused = append(res.Unused, key)
		}
	}
	sort.Strings(res.Unused)

	return strings.Join(lines, "\n"), res
}

// RenameFile applies Rename to the transcript file at path, rewriting it in
// place. The file is the editable ground truth, so the rewrite preserves
// every byte outside matched header labels.
func RenameFile(path string, labels types.SpeakerLabelMap) (RenameResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RenameResult{}, fmt.Errorf("transcript: read %q: %w", path, err)
	}
	out, res := Rename(string(data), labels)
	if out == string(data) {
		return res, nil
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return RenameResult{}, fmt.Errorf("transcript: write %q: %w", path, err)
	}
	return res, nil
}
