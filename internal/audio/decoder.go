package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no decoder
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder streams mono float64 samples in [-1, 1] from an audio file
type Decoder interface {
	// ReadChunk reads up to numSamples mono samples.
	// Returns io.EOF once the stream is exhausted.
	ReadChunk(numSamples int) ([]float64, error)

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumChannels returns the channel count of the source before downmixing
	NumChannels() int

	// Close releases the underlying file
	Close() error
}

// NewDecoder opens filename with the decoder matching its extension
func NewDecoder(filename string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".wav", ".wave":
		return NewWAVDecoder(filename)
	case ".mp3":
		return NewMP3Decoder(filename)
	case ".flac":
		return NewFLACDecoder(filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// SupportedExtensions lists the extensions NewDecoder accepts
func SupportedExtensions() []string {
	return []string{".wav", ".wave", ".mp3", ".flac"}
}
