// Package media wraps the ffmpeg and ffprobe command-line collaborators used
// to prepare pipeline inputs: audio extraction for transcription and
// diarization, and frame extraction for participant-name OCR.
//
// Both binaries must be on PATH. All functions are blocking, single-shot
// subprocess invocations that honour ctx cancellation.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ExtractAudio extracts mono 16 kHz 16-bit PCM WAV audio from the video at
// videoPath into tmpDir (os.TempDir when empty) and returns the output path.
// The sample format matches what both the whisper and pyannote collaborators
// expect.
func ExtractAudio(ctx context.Context, videoPath, tmpDir string) (string, error) {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	out := filepath.Join(tmpDir, base+"_audio_16k.wav")

	err := runFFmpeg(ctx,
		"-y", "-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1", "-ar", "16000",
		out,
	)
	if err != nil {
		return "", fmt.Errorf("media: extract audio from %q: %w", videoPath, err)
	}
	return out, nil
}

// ExtractFrame saves the video frame at the given timestamp (seconds) as a
// high-quality JPEG. When outPath is empty the frame is written next to the
// system temp dir as <stem>_frame_<ts>s.jpg. Returns the output path.
func ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outPath string) (string, error) {
	if timestamp < 0 {
		return "", fmt.Errorf("media: timestamp %v is negative", timestamp)
	}
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		outPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s_frame_%ds.jpg", base, int(timestamp)))
	}

	err := runFFmpeg(ctx,
		"-y",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
	if err != nil {
		return "", fmt.Errorf("media: extract frame at %vs from %q: %w", timestamp, videoPath, err)
	}
	return outPath, nil
}

// Duration returns the duration of the media file at path in seconds, via
// ffprobe.
func Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("media: ffprobe %q: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("media: parse ffprobe duration %q: %w", stdout.String(), err)
	}
	return secs, nil
}

// runFFmpeg invokes ffmpeg with the given arguments, surfacing the tail of
// stderr on failure (ffmpeg writes its diagnostics there).
func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

// lastLines returns at most n trailing non-empty lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
