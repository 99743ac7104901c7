package features

import (
	"gonum.org/v1/gonum/mat"
)

// OnsetStrength computes spectral flux over a log-mel (dB) matrix of
// frames × mels: the mean positive change between consecutive frames.
// The envelope is shifted right to compensate for centred framing and has
// exactly one value per frame.
func OnsetStrength(logMel *mat.Dense, fftSize, hop int) []float64 {
	frames, mels := logMel.Dims()
	if frames == 0 {
		return nil
	}

	lag := 1
	pad := lag + fftSize/(2*hop)

	onset := make([]float64, frames)
	for t := lag; t < frames; t++ {
		dst := t - lag + pad
		if dst >= frames {
			break
		}

		cur := logMel.RawRowView(t)
		prev := logMel.RawRowView(t - lag)
		sum := 0.0
		for m := 0; m < mels; m++ {
			if d := cur[m] - prev[m]; d > 0 {
				sum += d
			}
		}
		onset[dst] = sum / float64(mels)
	}

	return onset
}
