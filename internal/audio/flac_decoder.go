package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements Decoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	sampleRate  int
	numChannels int

	// Samples decoded from the current frame but not yet returned
	pending []float64
}

// NewFLACDecoder creates a new FLAC decoder
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	// Parses the signature and StreamInfo block
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		sampleRate:  int(stream.Info.SampleRate),
		numChannels: int(stream.Info.NChannels),
	}, nil
}

// ReadChunk reads the next chunk of samples, downmixed to mono
func (d *FLACDecoder) ReadChunk(numSamples int) ([]float64, error) {
	samples := make([]float64, 0, numSamples)

	for len(samples) < numSamples {
		if len(d.pending) == 0 {
			if err := d.decodeFrame(); err != nil {
				if err == io.EOF {
					break
				}
				return nil, err
			}
		}

		take := min(numSamples-len(samples), len(d.pending))
		samples = append(samples, d.pending[:take]...)
		d.pending = d.pending[take:]
	}

	if len(samples) == 0 {
		return nil, io.EOF
	}
	return samples, nil
}

// decodeFrame parses the next FLAC frame into the pending buffer
func (d *FLACDecoder) decodeFrame() error {
	frame, err := d.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("failed to parse FLAC frame: %w", err)
	}
	if len(frame.Subframes) == 0 {
		return nil
	}

	// FLAC supports 4-32 bits per sample
	maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
	n := len(frame.Subframes[0].Samples)
	channels := float64(len(frame.Subframes))

	d.pending = make([]float64, n)
	for i := 0; i < n; i++ {
		var sum int64
		for _, sub := range frame.Subframes {
			sum += int64(sub.Samples[i])
		}
		d.pending[i] = float64(sum) / channels / maxVal
	}

	return nil
}

// SampleRate returns the sample rate
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *FLACDecoder) NumChannels() int {
	return d.numChannels
}

// Close closes the decoder and releases resources
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	// The stream may already have closed the file
	if d.file != nil {
		if err := d.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return err
		}
	}
	return nil
}
