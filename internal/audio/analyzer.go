package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Profile summarises the loudness of a clip for display
type Profile struct {
	Duration     float64 // Seconds
	SampleRate   int
	Channels     int
	Peak         float64 // Absolute sample peak, linear
	RMS          float64 // Whole-clip RMS, linear
	DynamicRange float64 // Peak to RMS ratio in dB

	// RMS per window, one entry per video frame
	Envelope []float64
}

// PeakDB returns the peak level in dBFS
func (p *Profile) PeakDB() float64 {
	return toDB(p.Peak)
}

// RMSDB returns the RMS level in dBFS
func (p *Profile) RMSDB() float64 {
	return toDB(p.RMS)
}

// Analyze computes the loudness profile of clip, splitting it into
// windows of one video frame at fps for the envelope.
func Analyze(clip *Clip, fps int) *Profile {
	p := &Profile{
		Duration:   clip.Duration(),
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
	}
	if len(clip.Samples) == 0 {
		return p
	}

	p.Peak = math.Max(floats.Max(clip.Samples), -floats.Min(clip.Samples))
	p.RMS = rms(clip.Samples)
	if p.RMS > 0 {
		p.DynamicRange = 20 * math.Log10(p.Peak/p.RMS)
	}

	if fps > 0 {
		window := clip.SampleRate / fps
		if window < 1 {
			window = 1
		}
		p.Envelope = make([]float64, 0, len(clip.Samples)/window+1)
		for start := 0; start < len(clip.Samples); start += window {
			end := min(start+window, len(clip.Samples))
			p.Envelope = append(p.Envelope, rms(clip.Samples[start:end]))
		}
	}

	return p
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

func toDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}
