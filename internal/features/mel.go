package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency to the Slaney mel scale
func HzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

// MelToHz is the inverse of HzToMel
func MelToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return mel * melFSp
}

// MelFilterBank builds numMels triangular filters spanning 0 Hz to Nyquist
// over an fftSize-point spectrum. Each filter is area-normalised so bands
// carry comparable energy regardless of width. Returns a numMels × bins matrix.
func MelFilterBank(sampleRate, fftSize, numMels int) *mat.Dense {
	numBins := fftSize/2 + 1
	nyquist := float64(sampleRate) / 2

	fftFreqs := make([]float64, numBins)
	floats.Span(fftFreqs, 0, nyquist)

	melPoints := make([]float64, numMels+2)
	floats.Span(melPoints, HzToMel(0), HzToMel(nyquist))
	hzPoints := make([]float64, len(melPoints))
	for i, m := range melPoints {
		hzPoints[i] = MelToHz(m)
	}

	bank := mat.NewDense(numMels, numBins, nil)
	for m := 0; m < numMels; m++ {
		lo, centre, hi := hzPoints[m], hzPoints[m+1], hzPoints[m+2]
		norm := 2.0 / (hi - lo)

		for k, f := range fftFreqs {
			rising := (f - lo) / (centre - lo)
			falling := (hi - f) / (hi - centre)
			w := math.Max(0, math.Min(rising, falling))
			if w > 0 {
				bank.Set(m, k, w*norm)
			}
		}
	}

	return bank
}

// MelSpectrogram projects the power spectrogram onto the mel filter bank,
// returning a frames × numMels matrix
func MelSpectrogram(spec *Spectrogram, numMels int) *mat.Dense {
	frames := spec.NumFrames()
	bins := spec.NumBins()

	flat := make([]float64, 0, frames*bins)
	for _, row := range spec.Power {
		flat = append(flat, row...)
	}
	power := mat.NewDense(frames, bins, flat)

	bank := MelFilterBank(spec.SampleRate, spec.FFTSize, numMels)

	var mel mat.Dense
	mel.Mul(power, bank.T())
	return &mel
}

// PowerToDB converts a power matrix to decibels relative to 1.0 in place,
// flooring every value at topDB below the matrix maximum
func PowerToDB(m *mat.Dense, topDB float64) {
	const amin = 1e-10

	m.Apply(func(_, _ int, v float64) float64 {
		return 10 * math.Log10(math.Max(amin, v))
	}, m)

	if topDB <= 0 {
		return
	}
	floor := mat.Max(m) - topDB
	m.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, floor)
	}, m)
}
