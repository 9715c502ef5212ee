package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrPipelineFailed is returned by Watch when the observed pipeline published
// a failed status.
var ErrPipelineFailed = errors.New("progress: pipeline failed")

// WatchOptions configures a Watch loop. The zero value uses the defaults.
type WatchOptions struct {
	// Interval is the poll interval. Default: 1 second.
	Interval time.Duration

	// StaleAfter is how old a running snapshot may be before the watcher
	// flags it as stale (pipeline presumed crashed without marking failed).
	// Default: 30 seconds.
	StaleAfter time.Duration
}

// Watch polls the snapshot at path and renders a one-line progress report to
// out until the pipeline reports done or failed, or ctx is cancelled.
//
// A missing snapshot is reported as "waiting", not an error — the observer
// may be started before the pipeline. A running snapshot older than
// StaleAfter is flagged as stale but the watcher keeps polling; only ctx
// cancellation, done, or failed end the loop.
//
// Watch returns nil on done, [ErrPipelineFailed] on failed, and ctx.Err()
// on cancellation.
func Watch(ctx context.Context, path string, out io.Writer, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * time.Second
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		st, err := Read(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Fprintf(out, "\rwaiting for pipeline...")
		case err != nil:
			// A torn read cannot happen (atomic replace); a decode error
			// means a foreign file at the snapshot path. Keep polling.
			fmt.Fprintf(out, "\rwaiting for pipeline...")
		default:
			fmt.Fprintf(out, "\r%s", renderLine(st, opts.StaleAfter))
			switch st.Status {
			case StatusDone:
				fmt.Fprintln(out)
				return nil
			case StatusFailed:
				fmt.Fprintln(out)
				return ErrPipelineFailed
			}
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// renderLine formats one progress report line:
//
//	[##----] 2/5 diarization 03:12
func renderLine(st *State, staleAfter time.Duration) string {
	const width = 20
	filled := 0
	if st.TotalStages > 0 {
		filled = st.StageIndex * width / st.TotalStages
		if st.Status == StatusDone {
			filled = width
		}
	}
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '-'
		}
	}

	elapsed := int(st.ElapsedSeconds)
	line := fmt.Sprintf("[%s] %d/%d %s %02d:%02d",
		bar, st.StageIndex+1, st.TotalStages, st.StageLabel, elapsed/60, elapsed%60)

	if st.Status == StatusRunning && time.Since(st.UpdatedAt) > staleAfter {
		line += " (stale — pipeline may have crashed)"
	}
	return line
}
