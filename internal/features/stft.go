package features

import (
	"fmt"

	"github.com/argusdusty/gofft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrogram holds the power spectrum of a centred short-time Fourier
// transform, one row per frame
type Spectrogram struct {
	Power      [][]float64 // [frame][bin], |X|², FFTSize/2+1 bins
	SampleRate int
	FFTSize    int
	HopSize    int
}

// NumFrames returns the number of analysis frames
func (s *Spectrogram) NumFrames() int {
	return len(s.Power)
}

// NumBins returns the number of frequency bins per frame
func (s *Spectrogram) NumBins() int {
	return s.FFTSize/2 + 1
}

// BinFrequency returns the centre frequency of bin k in Hz
func (s *Spectrogram) BinFrequency(k int) float64 {
	return float64(k) * float64(s.SampleRate) / float64(s.FFTSize)
}

// FrameTime returns the time in seconds at the centre of frame i
func (s *Spectrogram) FrameTime(i int) float64 {
	return float64(i*s.HopSize) / float64(s.SampleRate)
}

// PeriodicHann returns an n-point periodic Hann window, the DFT-even variant
// suited to overlapping analysis frames
func PeriodicHann(n int) []float64 {
	return window.Hann(n + 1)[:n]
}

// STFT computes the power spectrogram of samples. Frames are centred: the
// signal is zero-padded by fftSize/2 on both sides so frame i is centred on
// sample i×hop, giving 1 + len(samples)/hop frames.
func STFT(samples []float64, sampleRate, fftSize, hop int) (*Spectrogram, error) {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("FFT size %d is not a power of two", fftSize)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("invalid hop size %d", hop)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	pad := fftSize / 2
	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)

	numFrames := 1 + len(samples)/hop
	numBins := fftSize/2 + 1
	hann := PeriodicHann(fftSize)

	spec := &Spectrogram{
		Power:      make([][]float64, numFrames),
		SampleRate: sampleRate,
		FFTSize:    fftSize,
		HopSize:    hop,
	}

	buf := make([]complex128, fftSize)
	for i := 0; i < numFrames; i++ {
		frame := padded[i*hop : i*hop+fftSize]
		for j, w := range hann {
			buf[j] = complex(frame[j]*w, 0)
		}

		if err := gofft.FFT(buf); err != nil {
			return nil, fmt.Errorf("FFT frame %d: %w", i, err)
		}

		row := make([]float64, numBins)
		for k := range row {
			re, im := real(buf[k]), imag(buf[k])
			row[k] = re*re + im*im
		}
		spec.Power[i] = row
	}

	return spec, nil
}
