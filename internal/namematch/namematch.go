// Package namematch extracts participant names from OCR'd video frames.
//
// Meeting platforms overlay each participant's display name on their video
// tile, so a handful of frames usually contains every attendee's name — but
// OCR output is noisy: the same name comes back with dropped letters,
// mangled diacritics, or stray punctuation from frame to frame. The
// collector runs OCR over frames concurrently, filters lines down to
// plausible name fragments, then folds near-duplicate readings together
// using Jaro-Winkler similarity so that each participant surfaces once,
// under the spelling that was read most often.
package namematch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/sync/errgroup"

	"github.com/yamadori/gijiroku/pkg/provider/ocr"
)

const (
	defaultSimilarityThreshold = 0.90
	defaultConcurrency         = 4
	defaultMinOccurrences      = 1

	// maxNameLength bounds a plausible display name. Longer lines are
	// almost always OCR picking up slide content or chat text.
	maxNameLength = 40
)

// Option is a functional option for configuring a [Collector].
type Option func(*Collector)

// WithSimilarityThreshold sets the minimum Jaro-Winkler score at which two
// OCR readings are treated as the same name. Default: 0.90.
func WithSimilarityThreshold(threshold float64) Option {
	return func(c *Collector) { c.similarityThreshold = threshold }
}

// WithConcurrency bounds the number of frames OCR'd in parallel. Default: 4.
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMinOccurrences sets how many frames a name must be read from before it
// is reported. Raising this above 1 suppresses one-off OCR hallucinations at
// the cost of missing participants who appear in few frames. Default: 1.
func WithMinOccurrences(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.minOccurrences = n
		}
	}
}

// Collector gathers participant names from video frames via an OCR backend.
// It is read-only after construction and safe for concurrent use.
type Collector struct {
	provider            ocr.Provider
	similarityThreshold float64
	concurrency         int
	minOccurrences      int
}

// New returns a Collector reading frames through provider.
func New(provider ocr.Provider, opts ...Option) *Collector {
	c := &Collector{
		provider:            provider,
		similarityThreshold: defaultSimilarityThreshold,
		concurrency:         defaultConcurrency,
		minOccurrences:      defaultMinOccurrences,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Collect OCRs every frame and returns the folded list of participant
// names, most frequently read first. Frames that fail OCR individually do
// not abort the collection; the first non-OCR error (context cancellation)
// does.
func (c *Collector) Collect(ctx context.Context, framePaths []string) ([]string, error) {
	if len(framePaths) == 0 {
		return nil, nil
	}

	readings := make([][]string, len(framePaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, path := range framePaths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := c.provider.Recognize(gctx, path)
			if err != nil {
				// One unreadable frame is noise, not failure.
				return nil
			}
			readings[i] = nameLines(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("namematch: collect names: %w", err)
	}

	var all []string
	for _, lines := range readings {
		all = append(all, lines...)
	}
	return c.fold(all), nil
}

// fold clusters near-duplicate readings and returns one canonical spelling
// per cluster, ordered by how often the cluster was read (ties broken
// alphabetically for stable output).
func (c *Collector) fold(readings []string) []string {
	var clusters []*cluster
	for _, reading := range readings {
		var target *cluster
		for _, cl := range clusters {
			if cl.matches(reading, c.similarityThreshold) {
				target = cl
				break
			}
		}
		if target == nil {
			target = &cluster{spellings: map[string]int{}}
			clusters = append(clusters, target)
		}
		target.spellings[reading]++
		target.total++
	}

	type named struct {
		name  string
		count int
	}
	result := make([]named, 0, len(clusters))
	for _, cl := range clusters {
		if cl.total < c.minOccurrences {
			continue
		}
		result = append(result, named{name: cl.canonical(), count: cl.total})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].count != result[j].count {
			return result[i].count > result[j].count
		}
		return result[i].name < result[j].name
	})

	names := make([]string, len(result))
	for i, n := range result {
		names[i] = n.name
	}
	return names
}

// nameLines splits OCR output into lines that plausibly are display names.
func nameLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !plausibleName(line) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// plausibleName filters out OCR lines that cannot be a participant name:
// empty lines, lines longer than a name has any business being, and lines
// where letters are outnumbered by symbols and digits.
func plausibleName(line string) bool {
	if line == "" {
		return false
	}
	runes := []rune(line)
	if len(runes) < 2 || len(runes) > maxNameLength {
		return false
	}
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters*2 > len(runes)
}

// cluster groups OCR readings judged to be the same name. spellings counts
// every raw reading assigned to the cluster.
type cluster struct {
	spellings map[string]int
	total     int
}

// matches reports whether reading belongs to this cluster: it must score at
// or above threshold against at least one existing spelling
// (case-insensitive Jaro-Winkler).
func (cl *cluster) matches(reading string, threshold float64) bool {
	lower := strings.ToLower(reading)
	for spelling := range cl.spellings {
		if strings.ToLower(spelling) == lower {
			return true
		}
		if matchr.JaroWinkler(lower, strings.ToLower(spelling), false) >= threshold {
			return true
		}
	}
	return false
}

// canonical returns the cluster's most frequent spelling, alphabetically
// first on ties.
func (cl *cluster) canonical() string {
	best := ""
	bestCount := -1
	for spelling, count := range cl.spellings {
		if count > bestCount || (count == bestCount && spelling < best) {
			best, bestCount = spelling, count
		}
	}
	return best
}
