// Package ocr defines the Provider interface for optical character
// recognition backends.
//
// OCR is used to read on-screen name tags out of video frames so that
// opaque diarization labels can be matched to real participant names. The
// input is always a single still image; there is no layout analysis beyond
// what the backend does internally.
package ocr

import "context"

// Provider is the abstraction over any OCR backend.
type Provider interface {
	// Recognize extracts the text visible in the image at imagePath. The
	// returned string preserves the backend's line breaks; callers split
	// and filter it themselves. An image with no recognizable text yields
	// an empty string and a nil error.
	Recognize(ctx context.Context, imagePath string) (string, error)

	// IsAvailable reports whether the backend is ready to use.
	IsAvailable(ctx context.Context) bool
}
