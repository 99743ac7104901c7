package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DCTMatrix returns the first numCoeffs rows of an orthonormal DCT-II basis
// over n inputs
func DCTMatrix(numCoeffs, n int) [][]float64 {
	basis := make([][]float64, numCoeffs)
	scale0 := math.Sqrt(1 / float64(n))
	scale := math.Sqrt(2 / float64(n))

	for k := 0; k < numCoeffs; k++ {
		basis[k] = make([]float64, n)
		s := scale
		if k == 0 {
			s = scale0
		}
		for i := 0; i < n; i++ {
			basis[k][i] = s * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
	}

	return basis
}

// MFCC computes numCoeffs cepstral coefficients per frame from a log-mel
// (dB) matrix of frames × mels
func MFCC(logMel *mat.Dense, numCoeffs int) [][]float64 {
	frames, mels := logMel.Dims()
	if numCoeffs > mels {
		numCoeffs = mels
	}
	basis := DCTMatrix(numCoeffs, mels)

	out := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		row := logMel.RawRowView(t)
		coeffs := make([]float64, numCoeffs)
		for k := range coeffs {
			coeffs[k] = floats.Dot(basis[k], row)
		}
		out[t] = coeffs
	}

	return out
}
