package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/yamadori/gijiroku/internal/observe"
	"github.com/yamadori/gijiroku/internal/pipeline"
	"github.com/yamadori/gijiroku/internal/progress"
	asrmock "github.com/yamadori/gijiroku/pkg/provider/asr/mock"
	diarizemock "github.com/yamadori/gijiroku/pkg/provider/diarize/mock"
	"github.com/yamadori/gijiroku/pkg/types"
)

// testSetup provides a fake video file, an isolated progress path, and a
// stub audio extractor so no external binary runs.
type testSetup struct {
	videoPath    string
	outputPath   string
	progressPath string
	reader       *sdkmetric.ManualReader
	opts         []pipeline.RunnerOption
}

func newTestSetup(t *testing.T) *testSetup {
	t.Helper()
	dir := t.TempDir()

	videoPath := filepath.Join(dir, "meeting.mp4")
	if err := os.WriteFile(videoPath, []byte("fake video"), 0o644); err != nil {
		t.Fatalf("write fake video: %v", err)
	}

	reader := sdkmetric.NewManualReader()
	metrics, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("create metrics: %v", err)
	}

	return &testSetup{
		videoPath:    videoPath,
		outputPath:   filepath.Join(dir, "out.txt"),
		progressPath: filepath.Join(dir, "progress.json"),
		reader:       reader,
		opts: []pipeline.RunnerOption{
			pipeline.WithMetrics(metrics),
			pipeline.WithAudioExtractor(func(ctx context.Context, videoPath, tmpDir string) (string, error) {
				audioPath := filepath.Join(tmpDir, "audio.wav")
				if err := os.WriteFile(audioPath, []byte("fake audio"), 0o644); err != nil {
					return "", err
				}
				return audioPath, nil
			}),
		},
	}
}

func (s *testSetup) options() pipeline.Options {
	return pipeline.Options{
		OutputPath:   s.outputPath,
		ProgressPath: s.progressPath,
	}
}

func TestRunProducesLabeledTranscript(t *testing.T) {
	t.Parallel()
	s := newTestSetup(t)

	transcriber := &asrmock.Provider{Segments: []types.TranscriptionSegment{
		{Start: 0, End: 5, Text: "Morning everyone."},
		{Start: 5, End: 9, Text: "Morning."},
	}}
	diarizer := &diarizemock.Provider{Segments: []types.DiarizationSegment{
		{Start: 0, End: 5, SpeakerID: "SPEAKER_00"},
		{Start: 5, End: 9, SpeakerID: "SPEAKER_01"},
	}}

	r := pipeline.New(transcriber, diarizer, s.opts...)
	res, err := r.Run(context.Background(), s.videoPath, s.options())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if res.OutputPath != s.outputPath {
		t.Errorf("OutputPath = %q, want %q", res.OutputPath, s.outputPath)
	}
	if res.SegmentCount != 2 {
		t.Errorf("SegmentCount = %d, want 2", res.SegmentCount)
	}
	wantSpeakers := []string{"SPEAKER_00", "SPEAKER_01"}
	if len(res.Speakers) != 2 || res.Speakers[0] != wantSpeakers[0] || res.Speakers[1] != wantSpeakers[1] {
		t.Errorf("Speakers = %v, want %v", res.Speakers, wantSpeakers)
	}

	data, err := os.ReadFile(s.outputPath)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	want := "SPEAKER_00 (00:00)\nMorning everyone.\n\nSPEAKER_01 (00:05)\nMorning.\n"
	if string(data) != want {
		t.Errorf("transcript = %q, want %q", data, want)
	}

	st, err := progress.Read(s.progressPath)
	if err != nil {
		t.Fatalf("read progress snapshot: %v", err)
	}
	if st.Status != progress.StatusDone {
		t.Errorf("final progress status = %q, want done", st.Status)
	}
	if st.TotalStages != 5 {
		t.Errorf("TotalStages = %d, want 5 with diarization enabled", st.TotalStages)
	}
}

func TestRunMissingVideo(t *testing.T) {
	t.Parallel()
	s := newTestSetup(t)

	r := pipeline.New(&asrmock.Provider{}, nil, s.opts...)
	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), s.options())

	var inputErr *pipeline.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("Run error = %v, want *InputError", err)
	}
}

func TestRunTranscriptionFailureIsFatal(t *testing.T) {
	t.Parallel()
	s := newTestSetup(t)

	transcriber := &asrmock.Provider{TranscribeErr: errors.New("model exploded")}
	r := pipeline.New(transcriber, nil, s.opts...)
	_, err := r.Run(context.Background(), s.videoPath, s.options())

	var collabErr *pipeline.CollaboratorError
	if !errors.As(err, &collabErr) {
		t.Fatalf("Run error = %v, want *CollaboratorError", err)
	}
	if collabErr.Collaborator != "transcription" {
		t.Errorf("Collaborator = %q, want transcription", collabErr.Collaborator)
	}

	st, err := progress.Read(s.progressPath)
	if err != nil {
		t.Fatalf("read progress snapshot: %v", err)
	}
	if st.Status != progress.StatusFailed {
		t.Errorf("final progress status = %q, want failed", st.Status)
	}
}

func TestRunDiarizationFailureIsFatal(t *testing.T) {
	t.Parallel()
	s := newTestSetup(t)

	transcriber := &asrmock.Provider{Segments: []types.TranscriptionSegment{
		{Start: 0, End: 3, Text: "Hello."},
	}}
	diarizer := &diarizemock.Provider{DiarizeErr: errors.New("sidecar down")}

	r := pipeline.New(transcriber, diarizer, s.opts...)
	_, err := r.Run(context.Background(), s.videoPath, s.options())

	var collabErr *pipeline.CollaboratorError
	if !errors.As(err, &collabErr) {
		t.Fatalf("Run error = %v, want *CollaboratorError", err)
	}
	if collabErr.Collaborator != "diarization" {
		t.Errorf("Collaborator = %q, want diarization", collabErr.Collaborator)
	}

	if _, statErr := os.Stat(s.outputPath); !os.IsNotExist(statErr) {
		t.Errorf("transcript exists after fatal diarization failure, stat err = %v", statErr)
	}

	st, err := progress.Read(s.progressPath)
	if err != nil {
		t.Fatalf("read progress snapshot: %v", err)
	}
	if st.Status != progress.StatusFailed {
		t.Errorf("final progress status = %q, want failed", st.Status)
	}
}

func TestRunCountsAlignmentAnomalies(t *testing.T) {
	t.Parallel()
	s := newTestSetup(t)

	transcriber := &asrmock.Provider{Segments: []types.TranscriptionSegment{
		{Start: 0, End: 4, Text: "Let's get started."},
		{Start: 4, End: 8, Text: "Sure."},
	}}
	// The second segment starts before the first ends, violating the
	// non-overlap contract; the aligner tolerates and counts it.
	diarizer := &diarizemock.Provider{Segments: []types.DiarizationSegment{
		{Start: 0, End: 5, SpeakerID: "SPEAKER_00"},
		{Start: 3, End: 8, SpeakerID: "SPEAKER_01"},
	}}

	r := pipeline.New(transcriber, diarizer, s.opts...)
	if _, err := r.Run(context.Background(), s.videoPath, s.options()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	var got int64
	found := false
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != "gijiroku.align.anomalies" {
			continue
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatalf("anomalies data type = %T, want Sum[int64]", m.Data)
		}
		for _, dp := range sum.DataPoints {
			got += dp.Value
		}
		found = true
	}
	if !found {
		t.Fatal("gijiroku.align.anomalies not collected after run with overlapping diarization")
	}
	if got != 1 {
		t.Errorf("anomaly count = %d, want 1 for the clipped overlap", got)
	}
}

func TestRunNoDiarization(t *testing.T) {
	t.Parallel()
	s := newTestSetup(t)

	transcriber := &asrmock.Provider{Segments: []types.TranscriptionSegment{
		{Start: 0, End: 3, Text: "First thought."},
		{Start: 3, End: 6, Text: "Second thought."},
	}}
	diarizer := &diarizemock.Provider{}

	opts := s.options()
	opts.NoDiarization = true

	r := pipeline.New(transcriber, diarizer, s.opts...)
	res, err := r.Run(context.Background(), s.videoPath, opts)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if diarizer.CallCount() != 0 {
		t.Errorf("Diarize called %d times with NoDiarization set, want 0", diarizer.CallCount())
	}
	if len(res.Speakers) != 1 || res.Speakers[0] != "SPEAKER_00" {
		t.Errorf("Speakers = %v, want single placeholder SPEAKER_00", res.Speakers)
	}
	// Continuity coalescing folds both utterances into one turn.
	if res.SegmentCount != 1 {
		t.Errorf("SegmentCount = %d, want 1", res.SegmentCount)
	}

	st, err := progress.Read(s.progressPath)
	if err != nil {
		t.Fatalf("read progress snapshot: %v", err)
	}
	if st.TotalStages != 4 {
		t.Errorf("TotalStages = %d, want 4 without diarization stage", st.TotalStages)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	t.Parallel()

	got := pipeline.DefaultOutputPath("/data/standup.mp4")
	want := "/data/standup_transcript.txt"
	if got != want {
		t.Errorf("DefaultOutputPath = %q, want %q", got, want)
	}
}
