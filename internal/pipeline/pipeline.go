// Package pipeline orchestrates the meeting-transcription run: extract the
// audio track, transcribe it, diarize it, align the two segment streams, and
// write the speaker-labeled transcript.
//
// Stages run sequentially and block; a progress snapshot is published at
// every stage transition so a second process can watch the run. A failing
// collaborator (ffmpeg, transcription, diarization) aborts the run; skipping
// diarization is an explicit choice ([Options.NoDiarization] or a nil
// diarizer), never a silent fallback.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/yamadori/gijiroku/internal/align"
	"github.com/yamadori/gijiroku/internal/media"
	"github.com/yamadori/gijiroku/internal/observe"
	"github.com/yamadori/gijiroku/internal/progress"
	"github.com/yamadori/gijiroku/internal/transcript"
	"github.com/yamadori/gijiroku/pkg/provider/asr"
	"github.com/yamadori/gijiroku/pkg/provider/diarize"
	"github.com/yamadori/gijiroku/pkg/types"
)

// soloSpeaker labels every turn when diarization is switched off. It mirrors
// the id scheme diarization backends use, so the rename pass treats both the
// same way.
const soloSpeaker = "SPEAKER_00"

// Options carries per-run parameters.
type Options struct {
	// OutputPath is where the transcript is written. Empty means
	// [DefaultOutputPath] of the video.
	OutputPath string

	// Preset, Language, and Fast are forwarded to the transcription
	// backend.
	Preset   asr.ModelPreset
	Language string
	Fast     bool

	// SpeakerHint, when positive, is forwarded to the diarization backend
	// as the exact expected speaker count.
	SpeakerHint int

	// NoDiarization skips the diarization stage entirely; every turn is
	// labeled with a single placeholder speaker.
	NoDiarization bool

	// ProgressPath overrides the progress snapshot location. Empty means
	// [progress.DefaultPath].
	ProgressPath string
}

// Result summarises a completed run.
type Result struct {
	// OutputPath is where the transcript was written.
	OutputPath string

	// Speakers lists the distinct speaker labels in order of first
	// appearance.
	Speakers []string

	// SegmentCount is the number of merged speaker turns written.
	SegmentCount int
}

// AudioExtractor converts a video file into the mono 16 kHz WAV the
// providers expect, writing into tmpDir and returning the WAV path.
type AudioExtractor func(ctx context.Context, videoPath, tmpDir string) (string, error)

// Runner executes transcription runs against a fixed pair of providers.
type Runner struct {
	transcriber asr.Provider
	diarizer    diarize.Provider // nil disables diarization
	extract     AudioExtractor
	metrics     *observe.Metrics
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithMetrics overrides the metrics instance (used by tests to isolate
// instrument state).
func WithMetrics(m *observe.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithAudioExtractor replaces the ffmpeg-backed audio extraction (used by
// tests to avoid the external binary).
func WithAudioExtractor(fn AudioExtractor) RunnerOption {
	return func(r *Runner) { r.extract = fn }
}

// New creates a Runner. diarizer may be nil, in which case every run behaves
// as if NoDiarization were set.
func New(transcriber asr.Provider, diarizer diarize.Provider, opts ...RunnerOption) *Runner {
	r := &Runner{
		transcriber: transcriber,
		diarizer:    diarizer,
	}
	for _, o := range opts {
		o(r)
	}
	if r.extract == nil {
		r.extract = media.ExtractAudio
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// DefaultOutputPath returns the transcript path derived from the video path:
// the same directory, `<stem>_transcript.txt`.
func DefaultOutputPath(videoPath string) string {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return filepath.Join(filepath.Dir(videoPath), stem+"_transcript.txt")
}

// Run executes the full pipeline for one video and returns a summary of
// what was written. The returned error is an *InputError or
// *CollaboratorError for fatal conditions; everything recoverable is logged
// and degrades the output instead.
func (r *Runner) Run(ctx context.Context, videoPath string, opts Options) (res *Result, err error) {
	if _, statErr := os.Stat(videoPath); statErr != nil {
		return nil, &InputError{Path: videoPath, Err: statErr}
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = DefaultOutputPath(videoPath)
	}
	progressPath := opts.ProgressPath
	if progressPath == "" {
		progressPath = progress.DefaultPath()
	}

	diarizing := r.diarizer != nil && !opts.NoDiarization
	stages := []string{"extracting audio", "transcribing"}
	if diarizing {
		stages = append(stages, "diarizing")
	}
	stages = append(stages, "aligning speakers", "writing transcript")

	w := progress.NewWriter(progressPath, len(stages), stages[0])
	defer func() {
		if err != nil {
			w.Fail()
		}
	}()

	tmpDir, err := os.MkdirTemp("", "gijiroku-*")
	if err != nil {
		return nil, fmt.Errorf("pipeline: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	stageIdx := 0
	nextStage := func(label string) func() {
		w.Stage(stageIdx, label)
		stageIdx++
		start := time.Now()
		return func() {
			r.metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
				metric.WithAttributes(attribute.String("stage", label)))
		}
	}

	// Stage: extract audio.
	endStage := nextStage("extracting audio")
	audioPath, err := r.extract(ctx, videoPath, tmpDir)
	endStage()
	if err != nil {
		return nil, &CollaboratorError{Collaborator: "ffmpeg", Err: err}
	}

	// Stage: transcribe.
	endStage = nextStage("transcribing")
	transcription, err := r.transcriber.Transcribe(ctx, audioPath, asr.Options{
		Preset:   opts.Preset,
		Language: opts.Language,
		Fast:     opts.Fast,
	})
	endStage()
	r.recordProvider(ctx, "asr", err)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: "transcription", Err: err}
	}

	// Stage: diarize (or synthesize a single-speaker timeline).
	var diarization []types.DiarizationSegment
	switch {
	case diarizing:
		endStage = nextStage("diarizing")
		if !r.diarizer.IsAvailable(ctx) {
			slog.Warn("diarization backend reports unavailable; attempting anyway")
		}
		diarization, err = r.diarizer.Diarize(ctx, audioPath, diarize.Options{
			SpeakerHint: opts.SpeakerHint,
		})
		endStage()
		r.recordProvider(ctx, "diarization", err)
		if err != nil {
			return nil, &CollaboratorError{Collaborator: "diarization", Err: err}
		}
	case len(transcription) > 0:
		diarization = []types.DiarizationSegment{{
			Start:     0,
			End:       timelineEnd(transcription),
			SpeakerID: soloSpeaker,
		}}
	}

	// Stage: align.
	endStage = nextStage("aligning speakers")
	merged, anomalies := align.Merge(transcription, diarization)
	endStage()
	r.metrics.SegmentsMerged.Add(ctx, int64(len(merged)))
	if anomalies > 0 {
		r.metrics.AlignmentAnomalies.Add(ctx, int64(anomalies))
	}

	// Stage: write.
	endStage = nextStage("writing transcript")
	tr := transcript.New(videoPath, merged, time.Now())
	writeErr := os.WriteFile(outputPath, []byte(transcript.Render(tr)), 0o644)
	endStage()
	if writeErr != nil {
		return nil, &InputError{Path: outputPath, Err: writeErr}
	}

	w.Done()
	return &Result{
		OutputPath:   outputPath,
		Speakers:     speakerLabels(merged),
		SegmentCount: len(merged),
	}, nil
}

// recordProvider bumps the provider request/error counters for one
// collaborator invocation.
func (r *Runner) recordProvider(ctx context.Context, kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		r.metrics.ProviderErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("kind", kind)))
	}
	r.metrics.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind), attribute.String("status", status)))
}

// timelineEnd returns the latest timestamp seen in the transcription, so a
// synthetic single-speaker segment can cover everything — including untimed
// fallback segments, which get a small positive extent.
func timelineEnd(segments []types.TranscriptionSegment) float64 {
	end := 0.0
	for _, s := range segments {
		if s.End > end {
			end = s.End
		}
		if s.Start > end {
			end = s.Start
		}
	}
	return end + 1
}

// speakerLabels returns the distinct speaker labels in order of first
// appearance.
func speakerLabels(segments []types.MergedSegment) []string {
	seen := make(map[string]struct{}, 4)
	var labels []string
	for _, s := range segments {
		if _, ok := seen[s.Speaker]; ok {
			continue
		}
		seen[s.Speaker] = struct{}{}
		labels = append(labels, s.Speaker)
	}
	return labels
}
