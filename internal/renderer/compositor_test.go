package renderer

import (
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/linuxmatters/canvasfire/internal/config"
	"github.com/linuxmatters/canvasfire/internal/features"
)

func testCover() *image.RGBA {
	cover := image.NewRGBA(image.Rect(0, 0, config.Width, config.Width))
	for y := 0; y < config.Width; y++ {
		for x := 0; x < config.Width; x++ {
			cover.SetRGBA(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 200, 255})
		}
	}
	return cover
}

func testSlice(t float64, beat bool) features.Slice {
	return features.Slice{
		Time:   t,
		MFCC:   []float64{-300, 4, 2, 1, 0},
		Chroma: []float64{0.2, 1, 0.4, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		Onset:  0.6,
		Beat:   beat,
	}
}

func TestNewCompositorValidatesCover(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))

	testCases := []struct {
		name  string
		cover *image.RGBA
	}{
		{"nil cover", nil},
		{"canvas sized", image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))},
		{"small square", image.NewRGBA(image.Rect(0, 0, 100, 100))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCompositor(tc.cover, rng); !errors.Is(err, ErrInvalidCover) {
				t.Errorf("expected ErrInvalidCover, got %v", err)
			}
		})
	}

	if _, err := NewCompositor(testCover(), nil); !errors.Is(err, ErrNoRand) {
		t.Errorf("expected ErrNoRand for missing random source, got %v", err)
	}
}

func TestComposeRejectsShortSlices(t *testing.T) {
	c, err := NewCompositor(testCover(), rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("NewCompositor failed: %v", err)
	}

	sl := testSlice(0, false)
	sl.MFCC = sl.MFCC[:2]
	if _, err := c.Compose(sl, 7, 1); !errors.Is(err, ErrFeatureArity) {
		t.Errorf("short MFCC: expected ErrFeatureArity, got %v", err)
	}

	sl = testSlice(0, false)
	sl.Chroma = nil
	if _, err := c.Compose(sl, 7, 1); !errors.Is(err, ErrFeatureArity) {
		t.Errorf("missing chroma: expected ErrFeatureArity, got %v", err)
	}
}

func TestComposeZeroIntensity(t *testing.T) {
	rng := &countingRand{}
	c, err := NewCompositor(testCover(), rng)
	if err != nil {
		t.Fatalf("NewCompositor failed: %v", err)
	}

	// A beat frame at intensity 0: no zoom, no particles, black overlay
	frame, err := c.Compose(testSlice(1.75, true), 7, 0)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if rng.calls != 0 {
		t.Errorf("rng used %d times at intensity 0", rng.calls)
	}

	want := image.NewRGBA(frame.Bounds())
	Pan(want, testCover(), 210)
	ColorOverlay(want, color.RGBA{A: 255}, config.OverlayWeight)

	for i := range want.Pix {
		if frame.Pix[i] != want.Pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, frame.Pix[i], want.Pix[i])
		}
	}
}

func TestComposeBeatPulseChangesFrame(t *testing.T) {
	plain, _ := NewCompositor(testCover(), &countingRand{})
	pulsed, _ := NewCompositor(testCover(), &countingRand{})

	a, err := plain.Compose(testSlice(0, false), 7, 1)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	b, err := pulsed.Compose(testSlice(0, true), 7, 1)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if a.Bounds() != b.Bounds() {
		t.Fatalf("pulse changed bounds: %v vs %v", a.Bounds(), b.Bounds())
	}

	diff := 0
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			diff++
		}
	}
	if diff == 0 {
		t.Error("beat-active frame is identical to the plain frame")
	}
}

func TestComposeDeterministicWithSeed(t *testing.T) {
	render := func() []*image.RGBA {
		c, err := NewCompositor(testCover(), rand.New(rand.NewPCG(42, 0)))
		if err != nil {
			t.Fatalf("NewCompositor failed: %v", err)
		}
		var frames []*image.RGBA
		for i := 0; i < 5; i++ {
			f, err := c.Compose(testSlice(float64(i)/30, i%2 == 0), 7, 1.3)
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			frames = append(frames, f)
		}
		return frames
	}

	first, second := render(), render()
	for i := range first {
		for j := range first[i].Pix {
			if first[i].Pix[j] != second[i].Pix[j] {
				t.Fatalf("frame %d differs at byte %d between identical runs", i, j)
			}
		}
	}
}

func TestComposeReturnsFreshFrames(t *testing.T) {
	c, _ := NewCompositor(testCover(), &countingRand{})

	a, _ := c.Compose(testSlice(0, false), 7, 1)
	b, _ := c.Compose(testSlice(3.5, false), 7, 1)

	if &a.Pix[0] == &b.Pix[0] {
		t.Error("consecutive frames share a pixel buffer")
	}
}

// BenchmarkCompose measures one full frame including a beat pulse
func BenchmarkCompose(b *testing.B) {
	c, err := NewCompositor(testCover(), rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		b.Fatal(err)
	}
	sl := testSlice(1.0, true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Compose(sl, 7, 1); err != nil {
			b.Fatal(err)
		}
	}
}
