// Package progress publishes pipeline progress across process boundaries.
//
// The running pipeline is the single writer: it maintains one [State] value
// for its lifetime and replaces the persisted snapshot wholesale at every
// stage transition. Replacement is atomic (write to a temporary file in the
// same directory, then rename into place), so an observer polling the
// snapshot path never sees a half-written state — only the previous complete
// value or the next one.
//
// Progress reporting is observability, not a correctness dependency: snapshot
// write failures degrade to a logged warning and the pipeline keeps running.
package progress

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Status is the pipeline lifecycle status carried in a snapshot.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// State is the progress snapshot record. It is written as a single JSON
// object and always replaced as a whole.
type State struct {
	// StageIndex is the 0-based index of the stage currently running (or the
	// last stage that ran, once the pipeline finished).
	StageIndex int `json:"stage_index"`

	// TotalStages is the total number of pipeline stages, >= 1.
	TotalStages int `json:"total_stages"`

	// StageLabel is the human-readable name of the current stage.
	StageLabel string `json:"stage_label"`

	// ElapsedSeconds is the wall-clock time since the pipeline started.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// Status is one of running, done, failed.
	Status Status `json:"status"`

	// UpdatedAt marks when this snapshot was written. Observers use it to
	// detect a pipeline that crashed without marking itself failed.
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultPath returns the default snapshot location,
// $TMPDIR/gijiroku-progress.json.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "gijiroku-progress.json")
}

// Writer publishes snapshots for one pipeline run. It is not safe for
// concurrent use — the pipeline is the single, sequential writer.
type Writer struct {
	path    string
	total   int
	started time.Time
	now     func() time.Time // stubbed in tests

	current State
}

// NewWriter creates a Writer that publishes to path and immediately writes
// the initial snapshot (stage 0 of totalStages, running).
func NewWriter(path string, totalStages int, firstStage string) *Writer {
	w := &Writer{
		path:  path,
		total: totalStages,
		now:   time.Now,
	}
	w.started = w.now()
	w.Stage(0, firstStage)
	return w
}

// Stage records a transition to the given stage and publishes a snapshot.
func (w *Writer) Stage(index int, label string) {
	w.current = State{
		StageIndex:  index,
		TotalStages: w.total,
		StageLabel:  label,
		Status:      StatusRunning,
	}
	w.publish()
}

// Done marks the pipeline as completed and publishes a final snapshot.
func (w *Writer) Done() {
	w.current.Status = StatusDone
	w.publish()
}

// Fail marks the pipeline as failed and publishes a final snapshot. It is
// best-effort by design — it is also called from signal teardown paths.
func (w *Writer) Fail() {
	w.current.Status = StatusFailed
	w.publish()
}

// publish atomically replaces the snapshot file with the current state.
// Failures are logged and otherwise ignored.
func (w *Writer) publish() {
	w.current.ElapsedSeconds = w.now().Sub(w.started).Seconds()
	w.current.UpdatedAt = w.now()

	if err := writeSnapshot(w.path, &w.current); err != nil {
		slog.Warn("progress snapshot write failed; progress will not be visible", "path", w.path, "error", err)
	}
}

// writeSnapshot performs the temp-file-plus-rename atomic replace.
func writeSnapshot(path string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("progress: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gijiroku-progress-*")
	if err != nil {
		return fmt.Errorf("progress: create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("progress: write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("progress: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("progress: replace snapshot: %w", err)
	}
	return nil
}

// Read loads the current snapshot from path. It returns os.ErrNotExist
// (wrapped) when no snapshot has been published yet.
func Read(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("progress: read snapshot: %w", err)
	}
	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("progress: decode snapshot: %w", err)
	}
	return st, nil
}
