package features

import (
	"math"
	"sort"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	minTempo = 30.0
	maxTempo = 320.0
)

// BeatTracker finds beat positions in an onset strength envelope with a
// dynamic programming search that rewards strong onsets spaced close to a
// single global tempo
type BeatTracker struct {
	SampleRate int
	HopSize    int
	StartBPM   float64 // Centre of the tempo prior
	Tightness  float64 // Penalty for deviating from the tempo period
	MaxLag     float64 // Longest autocorrelation lag considered, seconds
}

// frameRate returns onset envelope frames per second
func (bt *BeatTracker) frameRate() float64 {
	return float64(bt.SampleRate) / float64(bt.HopSize)
}

// EstimateTempo returns the global tempo in BPM by weighting the onset
// autocorrelation with a log-normal prior centred on StartBPM. Returns 0
// when no periodicity is found.
func (bt *BeatTracker) EstimateTempo(onset []float64) float64 {
	fr := bt.frameRate()
	maxLag := min(int(bt.MaxLag*fr), len(onset)-1)
	if maxLag < 1 {
		return 0
	}

	bestLag := 0
	bestScore := 0.0
	for lag := 1; lag <= maxLag; lag++ {
		bpm := 60 * fr / float64(lag)
		if bpm < minTempo || bpm > maxTempo {
			continue
		}

		ac := floats.Dot(onset[lag:], onset[:len(onset)-lag])
		prior := math.Exp(-0.5 * math.Pow(math.Log2(bpm)-math.Log2(bt.StartBPM), 2))
		if score := ac * prior; score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0
	}
	return 60 * fr / float64(bestLag)
}

// Track returns the estimated tempo and beat times in seconds, in ascending
// order. An envelope with no onsets yields no beats.
func (bt *BeatTracker) Track(onset []float64) (float64, []float64) {
	if len(onset) < 2 || floats.Max(onset) <= 0 {
		return 0, nil
	}

	tempo := bt.EstimateTempo(onset)
	if tempo <= 0 {
		return 0, nil
	}

	norm := make([]float64, len(onset))
	copy(norm, onset)
	if sd := stat.StdDev(norm, nil); sd > 0 {
		floats.Scale(1/sd, norm)
	}

	period := 60 * bt.frameRate() / tempo
	local := localScore(norm, period)
	frames := bt.trackFrames(local, period)

	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f*bt.HopSize) / float64(bt.SampleRate)
	}
	return tempo, times
}

// localScore smooths the onset envelope with a gaussian a fraction of one
// beat period wide
func localScore(onset []float64, period float64) []float64 {
	half := int(math.Round(period))
	kernel := make([]float64, 2*half+1)
	for i := range kernel {
		x := float64(i-half) * 32 / period
		kernel[i] = math.Exp(-0.5 * x * x)
	}

	out := make([]float64, len(onset))
	for i := range onset {
		sum := 0.0
		for j, k := range kernel {
			idx := i + j - half
			if idx >= 0 && idx < len(onset) {
				sum += onset[idx] * k
			}
		}
		out[i] = sum
	}
	return out
}

// trackFrames runs the dynamic programme over the local score and returns
// the chosen beat frames
func (bt *BeatTracker) trackFrames(local []float64, period float64) []int {
	n := len(local)
	backlink := make([]int, n)
	cumscore := make([]float64, n)

	// Predecessors lie between half a period and two periods back
	to := min(-int(math.Round(period/2)), -1)
	from := min(-int(math.Round(2*period)), to)
	offsets := make([]int, 0, to-from+1)
	penalty := make([]float64, 0, to-from+1)
	for d := from; d <= to; d++ {
		offsets = append(offsets, d)
		r := math.Log(-float64(d) / period)
		penalty = append(penalty, -bt.Tightness*r*r)
	}

	for i := 0; i < n; i++ {
		best := math.Inf(-1)
		link := -1
		for j, d := range offsets {
			// Predecessors before the start of the envelope score zero
			z := i + d
			s := penalty[j]
			if z >= 0 {
				s += cumscore[z]
			}
			if s > best {
				best = s
				link = max(z, -1)
			}
		}

		cumscore[i] = local[i] + best
		backlink[i] = link
	}

	tail := lastBeat(cumscore)
	if tail < 0 {
		return nil
	}

	beats := []int{tail}
	for backlink[beats[len(beats)-1]] >= 0 {
		beats = append(beats, backlink[beats[len(beats)-1]])
	}
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}

	return trimBeats(local, beats)
}

// lastBeat picks the final local maximum of the cumulative score that is
// at least half the median local-maximum score
func lastBeat(cumscore []float64) int {
	var peaks []int
	for i := range cumscore {
		left := i == 0 || cumscore[i] > cumscore[i-1]
		right := i == len(cumscore)-1 || cumscore[i] >= cumscore[i+1]
		if left && right {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) == 0 {
		return -1
	}

	vals := make([]float64, len(peaks))
	for i, p := range peaks {
		vals[i] = cumscore[p]
	}
	sort.Float64s(vals)
	thresh := 0.5 * stat.Quantile(0.5, stat.Empirical, vals, nil)

	for i := len(peaks) - 1; i >= 0; i-- {
		if cumscore[peaks[i]] > thresh {
			return peaks[i]
		}
	}
	return peaks[len(peaks)-1]
}

// trimBeats drops weak beats from the start and end of the sequence, where
// the envelope is unreliable
func trimBeats(local []float64, beats []int) []int {
	if len(beats) == 0 {
		return beats
	}

	strength := make([]float64, len(beats))
	for i, b := range beats {
		strength[i] = local[b]
	}

	hann := window.Hann(5)
	smooth := make([]float64, len(strength))
	for i := range strength {
		for j, w := range hann {
			idx := i + j - len(hann)/2
			if idx >= 0 && idx < len(strength) {
				smooth[i] += strength[idx] * w
			}
		}
	}

	thresh := 0.5 * math.Sqrt(floats.Dot(smooth, smooth)/float64(len(smooth)))

	start := 0
	for start < len(smooth) && smooth[start] <= thresh {
		start++
	}
	end := len(smooth)
	for end > start && smooth[end-1] <= thresh {
		end--
	}

	return beats[start:end]
}
