package features

import (
	"math"
	"math/rand/v2"

	"github.com/linuxmatters/canvasfire/internal/audio"
)

// sineClip returns a mono clip of a pure tone
func sineClip(sampleRate int, seconds, freq, amp float64) *audio.Clip {
	samples := make([]float64, int(seconds*float64(sampleRate)))
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return &audio.Clip{Samples: samples, SampleRate: sampleRate, Channels: 1}
}

// clickTrack returns a clip of short decaying noise bursts, one every
// interval samples starting at offset. It also returns the click times.
func clickTrack(sampleRate int, seconds float64, offset, interval int) (*audio.Clip, []float64) {
	rng := rand.New(rand.NewPCG(1, 2))
	samples := make([]float64, int(seconds*float64(sampleRate)))
	burst := sampleRate / 50

	var times []float64
	for start := offset; start < len(samples); start += interval {
		times = append(times, float64(start)/float64(sampleRate))
		for j := 0; j < burst && start+j < len(samples); j++ {
			decay := math.Exp(-5 * float64(j) / float64(burst))
			samples[start+j] = 0.8 * decay * (2*rng.Float64() - 1)
		}
	}

	return &audio.Clip{Samples: samples, SampleRate: sampleRate, Channels: 1}, times
}
