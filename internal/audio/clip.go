package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// ErrNoSamples is returned when a file decodes to an empty buffer
var ErrNoSamples = errors.New("no audio samples decoded")

// readChunkSize is the number of mono samples pulled from a decoder per read
const readChunkSize = 8192

// LoadError reports a failure to turn an audio file into a Clip
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading audio %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Clip is a fully decoded mono audio excerpt. It is not modified after Load.
type Clip struct {
	Samples    []float64
	SampleRate int
	Channels   int // Source channel count before downmixing
}

// Duration returns the clip length in seconds
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Length returns the clip length as a time.Duration
func (c *Clip) Length() time.Duration {
	return time.Duration(c.Duration() * float64(time.Second))
}

// Load decodes at most maxDuration seconds from the start of path, downmixed
// to mono at the file's native sample rate. A shorter file yields a shorter
// clip. All failures are returned as *LoadError.
func Load(path string, maxDuration float64) (*Clip, error) {
	dec, err := NewDecoder(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer dec.Close()

	clip, err := Decode(dec, maxDuration)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return clip, nil
}

// Decode drains dec into a Clip holding at most floor(maxDuration × rate)
// samples. A maxDuration of zero or less reads the whole stream.
func Decode(dec Decoder, maxDuration float64) (*Clip, error) {
	rate := dec.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", rate)
	}

	limit := math.MaxInt
	if maxDuration > 0 && !math.IsInf(maxDuration, 1) {
		limit = int(maxDuration * float64(rate))
	}

	samples := make([]float64, 0, min(limit, rate*10))
	for len(samples) < limit {
		want := min(readChunkSize, limit-len(samples))
		chunk, err := dec.ReadChunk(want)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples at %d: %w", len(samples), err)
		}
		if len(chunk) > want {
			chunk = chunk[:want]
		}
		samples = append(samples, chunk...)
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	return &Clip{
		Samples:    samples,
		SampleRate: rate,
		Channels:   dec.NumChannels(),
	}, nil
}
