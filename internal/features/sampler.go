package features

import (
	"math"

	"github.com/linuxmatters/canvasfire/internal/config"
)

// Slice is the set of feature values sampled for one output frame
type Slice struct {
	Time   float64
	MFCC   []float64
	Chroma []float64
	Onset  float64
	Beat   bool
}

// FrameTime returns the timestamp of output frame i at fps
func FrameTime(i, fps int) float64 {
	return float64(i) / float64(fps)
}

// Index maps time t onto a series of length n spanning duration seconds.
// It rounds down and clamps to [0, n-1], so times at or past the end map to
// the last element. Returns -1 for an empty series.
func Index(t, duration float64, n int) int {
	if n <= 0 {
		return -1
	}
	if duration <= 0 {
		return 0
	}

	idx := int(math.Floor(t / duration * float64(n)))
	return max(0, min(idx, n-1))
}

// NearestBeat returns the index of the beat closest to t and its distance
// in seconds. Ties go to the earlier beat. Returns -1 when beats is empty.
func NearestBeat(beats []float64, t float64) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, b := range beats {
		if d := math.Abs(b - t); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// BeatActive reports whether a beat lies strictly within window seconds of t
func BeatActive(beats []float64, t, window float64) bool {
	if len(beats) == 0 {
		return false
	}
	_, d := NearestBeat(beats, t)
	return d < window
}

// SampleAt returns the feature slice for time t. Each series is indexed
// against its own length.
func (s *Series) SampleAt(t float64) Slice {
	sl := Slice{
		Time: t,
		Beat: BeatActive(s.Beats, t, config.BeatWindow),
	}

	if i := Index(t, s.Duration, len(s.MFCC)); i >= 0 {
		sl.MFCC = s.MFCC[i]
	}
	if i := Index(t, s.Duration, len(s.Chroma)); i >= 0 {
		sl.Chroma = s.Chroma[i]
	}
	if i := Index(t, s.Duration, len(s.Onset)); i >= 0 {
		sl.Onset = s.Onset[i]
	}

	return sl
}
