package whisper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/yamadori/gijiroku/pkg/provider/asr"
	"github.com/yamadori/gijiroku/pkg/provider/asr/whisper"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting_audio_16k.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio payload"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestServerProviderTranscribe(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotForm = map[string]string{}
		for key, vals := range r.MultipartForm.Value {
			gotForm[key] = vals[0]
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"text": "Hello there. General Kenobi.",
			"segments": [
				{"start": 0.0, "end": 2.5, "text": " Hello there."},
				{"start": 2.5, "end": 5.0, "text": " General Kenobi."}
			]
		}`))
	}))
	defer srv.Close()

	p := whisper.NewServer(srv.URL, whisper.WithServerLanguage("ja"))
	segments, err := p.Transcribe(context.Background(), writeAudioFixture(t), asr.Options{
		Preset: asr.PresetMedium,
		Fast:   true,
	})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	if gotPath != "/inference" {
		t.Errorf("request path = %q, want /inference", gotPath)
	}
	if gotForm["response_format"] != "verbose_json" {
		t.Errorf("response_format = %q, want verbose_json", gotForm["response_format"])
	}
	if gotForm["language"] != "ja" {
		t.Errorf("language = %q, want ja (provider default)", gotForm["language"])
	}
	if gotForm["model"] != "medium" {
		t.Errorf("model = %q, want medium", gotForm["model"])
	}
	if gotForm["beam_size"] != "1" {
		t.Errorf("beam_size = %q, want 1 with Fast set", gotForm["beam_size"])
	}

	if len(segments) != 2 {
		t.Fatalf("len(segments) = %d, want 2", len(segments))
	}
	if segments[0].Text != "Hello there." {
		t.Errorf("segments[0].Text = %q, want trimmed %q", segments[0].Text, "Hello there.")
	}
	if segments[1].Start != 2.5 || segments[1].End != 5.0 {
		t.Errorf("segments[1] timing = [%f, %f), want [2.5, 5.0)", segments[1].Start, segments[1].End)
	}
}

func TestServerProviderFlatTextFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": " Just the flat text. "}`))
	}))
	defer srv.Close()

	p := whisper.NewServer(srv.URL)
	segments, err := p.Transcribe(context.Background(), writeAudioFixture(t), asr.Options{})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("len(segments) = %d, want 1", len(segments))
	}
	if segments[0].Text != "Just the flat text." {
		t.Errorf("segments[0].Text = %q, want %q", segments[0].Text, "Just the flat text.")
	}
	if segments[0].Start != 0 || segments[0].End != 0 {
		t.Errorf("fallback segment timing = [%f, %f), want untimed [0, 0)", segments[0].Start, segments[0].End)
	}
}

func TestServerProviderHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := whisper.NewServer(srv.URL)
	if _, err := p.Transcribe(context.Background(), writeAudioFixture(t), asr.Options{}); err == nil {
		t.Error("Transcribe succeeded on HTTP 500, want error")
	}
}

func TestServerProviderMissingFile(t *testing.T) {
	t.Parallel()

	p := whisper.NewServer("http://localhost:1")
	if _, err := p.Transcribe(context.Background(), "/nonexistent/audio.wav", asr.Options{}); err == nil {
		t.Error("Transcribe succeeded with missing audio file, want error")
	}
}
