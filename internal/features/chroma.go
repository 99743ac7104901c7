package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Pitch classes in chroma order, C first
var PitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

const (
	chromaRefHz     = 27.5 // A0
	chromaCentreOct = 5.0  // Octave weighting peaks around A5
	chromaOctWidth  = 2.0
)

// pitchClassWeights describes how one FFT bin spreads across pitch classes
type pitchClassWeights struct {
	lo, hi   int
	wLo, wHi float64
}

// chromaBinMap assigns every non-DC bin to its two nearest pitch classes,
// weighted linearly by distance and by a gaussian over octaves that favours
// the melodic range
func chromaBinMap(sampleRate, fftSize, numChroma int) []pitchClassWeights {
	numBins := fftSize/2 + 1
	m := make([]pitchClassWeights, numBins)
	classesPerOct := float64(numChroma)

	for k := 1; k < numBins; k++ {
		f := float64(k) * float64(sampleRate) / float64(fftSize)
		octs := math.Log2(f / chromaRefHz)

		// A0 sits 9 semitones above C
		pos := math.Mod(octs*classesPerOct+classesPerOct*9/12, classesPerOct)
		if pos < 0 {
			pos += classesPerOct
		}
		lower := math.Floor(pos)
		frac := pos - lower

		octWeight := math.Exp(-0.5 * math.Pow((octs-chromaCentreOct)/chromaOctWidth, 2))

		lo := int(lower) % numChroma
		m[k] = pitchClassWeights{
			lo:  lo,
			hi:  (lo + 1) % numChroma,
			wLo: (1 - frac) * octWeight,
			wHi: frac * octWeight,
		}
	}

	return m
}

// Chroma folds each frame of the power spectrogram into numChroma pitch-class
// energies, normalised so the strongest class in each frame is 1. Silent
// frames stay all-zero.
func Chroma(spec *Spectrogram, numChroma int) [][]float64 {
	binMap := chromaBinMap(spec.SampleRate, spec.FFTSize, numChroma)

	out := make([][]float64, spec.NumFrames())
	for t, row := range spec.Power {
		classes := make([]float64, numChroma)
		for k := 1; k < len(row) && k < len(binMap); k++ {
			w := binMap[k]
			classes[w.lo] += row[k] * w.wLo
			classes[w.hi] += row[k] * w.wHi
		}

		if peak := floats.Max(classes); peak > 0 {
			floats.Scale(1/peak, classes)
		}
		out[t] = classes
	}

	return out
}
