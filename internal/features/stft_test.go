package features

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestSTFTFrameCount(t *testing.T) {
	spec, err := STFT(make([]float64, 10000), 22050, 2048, 512)
	if err != nil {
		t.Fatalf("STFT failed: %v", err)
	}

	// Centred framing: 1 + 10000/512
	if spec.NumFrames() != 20 {
		t.Errorf("NumFrames() = %d, want 20", spec.NumFrames())
	}
	for i, row := range spec.Power {
		if len(row) != 1025 {
			t.Fatalf("frame %d has %d bins, want 1025", i, len(row))
		}
	}
}

func TestSTFTSinePeak(t *testing.T) {
	// Bin 100 centre frequency at 22050 Hz / 2048
	freq := 100 * 22050.0 / 2048
	clip := sineClip(22050, 1.0, freq, 0.5)

	spec, err := STFT(clip.Samples, clip.SampleRate, 2048, 512)
	if err != nil {
		t.Fatalf("STFT failed: %v", err)
	}

	mid := spec.Power[spec.NumFrames()/2]
	if peak := floats.MaxIdx(mid); peak != 100 {
		t.Errorf("peak bin = %d, want 100", peak)
	}
	if math.Abs(spec.BinFrequency(100)-freq) > 1e-9 {
		t.Errorf("BinFrequency(100) = %f, want %f", spec.BinFrequency(100), freq)
	}
	if math.Abs(spec.FrameTime(43)-43*512/22050.0) > 1e-12 {
		t.Errorf("FrameTime(43) = %f", spec.FrameTime(43))
	}
}

func TestSTFTRejectsInvalidParams(t *testing.T) {
	testCases := []struct {
		name       string
		sampleRate int
		fftSize    int
		hop        int
	}{
		{"fft not power of two", 22050, 1000, 256},
		{"zero fft", 22050, 0, 256},
		{"zero hop", 22050, 1024, 0},
		{"zero sample rate", 0, 1024, 256},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := STFT(make([]float64, 4096), tc.sampleRate, tc.fftSize, tc.hop); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPeriodicHann(t *testing.T) {
	w := PeriodicHann(8)

	if len(w) != 8 {
		t.Fatalf("len = %d, want 8", len(w))
	}
	if w[0] != 0 {
		t.Errorf("w[0] = %f, want 0", w[0])
	}
	if math.Abs(w[4]-1) > 1e-12 {
		t.Errorf("w[4] = %f, want 1", w[4])
	}
	for k := 1; k < 8; k++ {
		if math.Abs(w[k]-w[8-k]) > 1e-12 {
			t.Errorf("w[%d] = %f but w[%d] = %f", k, w[k], 8-k, w[8-k])
		}
	}
}

func TestMelScale(t *testing.T) {
	if got := HzToMel(1000); math.Abs(got-15) > 1e-9 {
		t.Errorf("HzToMel(1000) = %f, want 15", got)
	}
	for _, hz := range []float64{0, 440, 1000, 4000, 11025} {
		if back := MelToHz(HzToMel(hz)); math.Abs(back-hz) > 1e-6 {
			t.Errorf("MelToHz(HzToMel(%f)) = %f", hz, back)
		}
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := MelFilterBank(22050, 2048, 128)

	rows, cols := bank.Dims()
	if rows != 128 || cols != 1025 {
		t.Fatalf("bank is %d×%d, want 128×1025", rows, cols)
	}

	for m := 0; m < rows; m++ {
		row := bank.RawRowView(m)
		if floats.Min(row) < 0 {
			t.Errorf("filter %d has negative weights", m)
		}
		if floats.Sum(row) == 0 {
			t.Errorf("filter %d covers no bins", m)
		}
	}

	// Higher filters are wider and so carry lower peak weights
	if floats.Max(bank.RawRowView(127)) >= floats.Max(bank.RawRowView(0)) {
		t.Error("expected area normalisation to lower the peak of wide filters")
	}
}

func TestPowerToDB(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 0.1, 0})
	PowerToDB(m, 80)

	want := []float64{0, -10, -80}
	for i, w := range want {
		if got := m.At(0, i); math.Abs(got-w) > 1e-9 {
			t.Errorf("dB[%d] = %f, want %f", i, got, w)
		}
	}
}

func TestDCTMatrixOrthonormal(t *testing.T) {
	basis := DCTMatrix(20, 128)

	for i := range basis {
		for j := range basis {
			dot := floats.Dot(basis[i], basis[j])
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(dot-want) > 1e-9 {
				t.Fatalf("basis[%d]·basis[%d] = %f, want %f", i, j, dot, want)
			}
		}
	}
}

func TestMFCCFlatSpectrum(t *testing.T) {
	logMel := mat.NewDense(2, 128, nil)
	for j := 0; j < 128; j++ {
		logMel.Set(0, j, -20)
		logMel.Set(1, j, -40)
	}

	coeffs := MFCC(logMel, 20)

	if len(coeffs) != 2 || len(coeffs[0]) != 20 {
		t.Fatalf("MFCC shape = %d×%d, want 2×20", len(coeffs), len(coeffs[0]))
	}
	if math.Abs(coeffs[0][0]-(-20*math.Sqrt(128))) > 1e-9 {
		t.Errorf("c0 = %f, want %f", coeffs[0][0], -20*math.Sqrt(128))
	}
	for k := 1; k < 20; k++ {
		if math.Abs(coeffs[1][k]) > 1e-9 {
			t.Errorf("c%d = %f, want 0 for a flat spectrum", k, coeffs[1][k])
		}
	}
}

func TestChromaConcertA(t *testing.T) {
	clip := sineClip(22050, 1.0, 440, 0.5)
	spec, err := STFT(clip.Samples, clip.SampleRate, 2048, 512)
	if err != nil {
		t.Fatalf("STFT failed: %v", err)
	}

	chroma := Chroma(spec, 12)

	mean := make([]float64, 12)
	for _, frame := range chroma {
		floats.Add(mean, frame)
		if floats.Max(frame) > 1+1e-9 {
			t.Fatalf("chroma frame exceeds 1: %v", frame)
		}
	}

	if got := floats.MaxIdx(mean); got != 9 {
		t.Errorf("dominant pitch class = %s, want A", PitchClasses[got])
	}
}

func TestChromaSilence(t *testing.T) {
	spec, err := STFT(make([]float64, 4096), 22050, 2048, 512)
	if err != nil {
		t.Fatalf("STFT failed: %v", err)
	}

	for i, frame := range Chroma(spec, 12) {
		if floats.Max(frame) != 0 {
			t.Errorf("frame %d of silence has chroma %v", i, frame)
		}
	}
}
