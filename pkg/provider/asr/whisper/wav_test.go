package whisper

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE file with 16-bit PCM samples.
// extraChunk, if non-empty, is inserted before the data chunk to exercise
// chunk skipping.
func buildWAV(t *testing.T, sampleRate, channels int, samples []int16, extraChunk []byte) []byte {
	t.Helper()

	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	var fmtChunk [16]byte
	binary.LittleEndian.PutUint16(fmtChunk[0:], 1) // PCM
	binary.LittleEndian.PutUint16(fmtChunk[2:], uint16(channels))
	binary.LittleEndian.PutUint32(fmtChunk[4:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(fmtChunk[8:], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(fmtChunk[12:], uint16(channels*2))
	binary.LittleEndian.PutUint16(fmtChunk[14:], 16)

	var out []byte
	appendChunk := func(id string, body []byte) {
		out = append(out, id...)
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(body)))
		out = append(out, size[:]...)
		out = append(out, body...)
		if len(body)%2 == 1 {
			out = append(out, 0)
		}
	}

	out = append(out, "RIFF\x00\x00\x00\x00WAVE"...)
	appendChunk("fmt ", fmtChunk[:])
	if len(extraChunk) > 0 {
		appendChunk("LIST", extraChunk)
	}
	appendChunk("data", data)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write temp wav: %v", err)
	}
	return path
}

func TestReadWAVMono(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, buildWAV(t, 16000, 1, []int16{0, 16384, -16384, 32767}, nil))

	wav, err := readWAV(path)
	if err != nil {
		t.Fatalf("readWAV returned error: %v", err)
	}
	if wav.sampleRate != 16000 {
		t.Errorf("sampleRate = %d, want 16000", wav.sampleRate)
	}
	if wav.channels != 1 {
		t.Errorf("channels = %d, want 1", wav.channels)
	}

	samples := wav.samples()
	if len(samples) != 4 {
		t.Fatalf("len(samples) = %d, want 4", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("samples[0] = %f, want 0", samples[0])
	}
	if samples[1] != 0.5 {
		t.Errorf("samples[1] = %f, want 0.5", samples[1])
	}
	if samples[2] != -0.5 {
		t.Errorf("samples[2] = %f, want -0.5", samples[2])
	}
}

func TestReadWAVSkipsUnknownChunks(t *testing.T) {
	t.Parallel()

	// Odd-length LIST chunk forces the word-alignment path too.
	path := writeTemp(t, buildWAV(t, 16000, 1, []int16{100, 200}, []byte("INFOx")))

	wav, err := readWAV(path)
	if err != nil {
		t.Fatalf("readWAV returned error: %v", err)
	}
	if got := len(wav.samples()); got != 2 {
		t.Errorf("len(samples) = %d, want 2", got)
	}
}

func TestReadWAVStereoDownmix(t *testing.T) {
	t.Parallel()

	// Interleaved L/R frames: (16384, 0) averages to 0.25.
	path := writeTemp(t, buildWAV(t, 16000, 2, []int16{16384, 0, -16384, -16384}, nil))

	wav, err := readWAV(path)
	if err != nil {
		t.Fatalf("readWAV returned error: %v", err)
	}
	samples := wav.samples()
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	if samples[0] != 0.25 {
		t.Errorf("samples[0] = %f, want 0.25", samples[0])
	}
	if samples[1] != -0.5 {
		t.Errorf("samples[1] = %f, want -0.5", samples[1])
	}
}

func TestReadWAVRejectsNonWAV(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, []byte("definitely not a wav file"))
	if _, err := readWAV(path); err == nil {
		t.Error("readWAV accepted a non-WAV file, want error")
	}
}

func TestReadWAVRejectsFloatPCM(t *testing.T) {
	t.Parallel()

	raw := buildWAV(t, 16000, 1, []int16{1, 2}, nil)
	// Patch the fmt tag to IEEE float (3). fmt chunk body starts at offset 20.
	binary.LittleEndian.PutUint16(raw[20:], 3)

	path := writeTemp(t, raw)
	if _, err := readWAV(path); err == nil {
		t.Error("readWAV accepted float PCM, want error")
	}
}
