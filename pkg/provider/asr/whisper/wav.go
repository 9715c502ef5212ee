package whisper

import (
	"encoding/binary"
	"fmt"
	"os"
)

// wavInfo describes the PCM payload of a parsed WAV file.
type wavInfo struct {
	sampleRate int
	channels   int
	data       []byte // raw 16-bit little-endian PCM
}

// readWAV loads a RIFF/WAVE file and returns its 16-bit PCM payload. Only
// the format produced by the media package (PCM s16le) is accepted; chunk
// order beyond the RIFF header is not assumed, so files with LIST/INFO
// chunks parse fine.
func readWAV(path string) (*wavInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: read wav %q: %w", path, err)
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("whisper: %q is not a RIFF/WAVE file", path)
	}

	info := &wavInfo{}
	sawFmt := false
	for off := 12; off+8 <= len(raw); {
		id := string(raw[off : off+4])
		size := int(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		body := off + 8
		if body+size > len(raw) {
			return nil, fmt.Errorf("whisper: wav chunk %q overruns file", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("whisper: wav fmt chunk too short (%d bytes)", size)
			}
			format := binary.LittleEndian.Uint16(raw[body : body+2])
			bits := binary.LittleEndian.Uint16(raw[body+14 : body+16])
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("whisper: unsupported wav encoding (format=%d bits=%d), want 16-bit PCM", format, bits)
			}
			info.channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			info.sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			sawFmt = true
		case "data":
			info.data = raw[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size + size%2
	}

	if !sawFmt || info.data == nil {
		return nil, fmt.Errorf("whisper: wav %q is missing fmt or data chunk", path)
	}
	return info, nil
}

// samples converts the PCM payload to mono float32 normalised to [-1, 1],
// down-mixing by channel average when the file is not mono.
func (w *wavInfo) samples() []float32 {
	if w.channels <= 1 {
		return pcmToFloat32(w.data)
	}
	return pcmToFloat32Mono(w.data, w.channels)
}

// pcmToFloat32 converts 16-bit signed little-endian PCM audio to float32
// samples normalised to the range [-1.0, 1.0]. Any trailing odd byte is
// silently ignored.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// pcmToFloat32Mono down-mixes multi-channel 16-bit PCM to mono float32 by
// averaging all channels per frame.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	samplesPerChannel := len(pcm) / (2 * channels)
	mono := make([]float32, samplesPerChannel)
	for i := range samplesPerChannel {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
