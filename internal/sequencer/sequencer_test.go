package sequencer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/linuxmatters/canvasfire/internal/audio"
	"github.com/linuxmatters/canvasfire/internal/config"
	"github.com/linuxmatters/canvasfire/internal/features"
	"github.com/linuxmatters/canvasfire/internal/renderer"
)

const testRate = 22050

func toneClip(seconds float64) *audio.Clip {
	samples := make([]float64, int(seconds*testRate))
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/testRate)
	}
	return &audio.Clip{Samples: samples, SampleRate: testRate, Channels: 1}
}

func silentClip(seconds float64) *audio.Clip {
	return &audio.Clip{Samples: make([]float64, int(seconds*testRate)), SampleRate: testRate, Channels: 1}
}

func greyCover() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Width))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 128, 255
	}
	return img
}

type countingRand struct {
	calls int
}

func (r *countingRand) IntN(n int) int {
	r.calls++
	return r.calls % n
}

func TestNumFrames(t *testing.T) {
	testCases := []struct {
		duration float64
		fps      int
		want     int
	}{
		{7, 30, 210},
		{5, 30, 150},
		{1.99, 24, 47},
		{0.03, 30, 0},
		{0, 30, 0},
		{-1, 30, 0},
		{5, 0, 0},
	}

	for _, tc := range testCases {
		if got := NumFrames(tc.duration, tc.fps); got != tc.want {
			t.Errorf("NumFrames(%g, %d) = %d, want %d", tc.duration, tc.fps, got, tc.want)
		}
	}
}

func TestGenerateFrameCount(t *testing.T) {
	var reports []Progress
	seq, err := Generate(context.Background(), Request{
		Clip:      toneClip(1.5),
		Cover:     greyCover(),
		FPS:       24,
		Intensity: 1,
		Seed:      7,
	}, func(p Progress) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(seq.Frames) != 36 {
		t.Fatalf("got %d frames, want 36", len(seq.Frames))
	}
	for i, f := range seq.Frames {
		if f.Bounds() != image.Rect(0, 0, config.Width, config.Height) {
			t.Fatalf("frame %d bounds = %v", i, f.Bounds())
		}
	}
	if seq.Duration() != 1.5 || seq.FPS != 24 || seq.Seed != 7 {
		t.Errorf("sequence metadata = %.3fs @ %d fps seed %d", seq.Duration(), seq.FPS, seq.Seed)
	}

	if len(reports) != 36 {
		t.Fatalf("got %d progress reports, want 36", len(reports))
	}
	for i, p := range reports {
		if p.Frame != i+1 || p.TotalFrames != 36 {
			t.Errorf("report %d = frame %d of %d", i, p.Frame, p.TotalFrames)
		}
		if p.Image != seq.Frames[i] {
			t.Errorf("report %d carries the wrong frame", i)
		}
		if want := float64(i) / 24; p.Time != want {
			t.Errorf("report %d time = %g, want %g", i, p.Time, want)
		}
	}

	t.Logf("Rendered %d frames: analysis %v, render %v", len(seq.Frames), seq.AnalysisTime, seq.RenderTime)
}

func TestGenerateFiveSecondsAtThirtyFPS(t *testing.T) {
	seq, err := Generate(context.Background(), Request{
		Clip:      toneClip(5.0),
		Cover:     greyCover(),
		FPS:       30,
		Intensity: 1,
		Seed:      11,
	}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(seq.Frames) != 150 {
		t.Errorf("got %d frames, want 150", len(seq.Frames))
	}
	if seq.Duration() != 5.0 {
		t.Errorf("sequence covers %gs, want 5s", seq.Duration())
	}
}

func TestGenerateReportsAnalysisFirst(t *testing.T) {
	var events []string
	clip := toneClip(0.5)

	_, err := Generate(context.Background(), Request{
		Clip:      clip,
		Cover:     greyCover(),
		FPS:       24,
		Intensity: 1,
		OnAnalysed: func(c *audio.Clip, s *features.Series, _ time.Duration) {
			if c != clip || s.Duration != 0.5 {
				t.Errorf("analysis callback got clip %p duration %g", c, s.Duration)
			}
			events = append(events, "analysed")
		},
	}, func(Progress) {
		events = append(events, "frame")
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(events) != 13 || events[0] != "analysed" || events[1] != "frame" {
		t.Errorf("events = %v, want analysed then 12 frames", events)
	}
}

func TestGenerateDeterministicSeed(t *testing.T) {
	clip := toneClip(1.0)
	run := func(seed uint64) *Sequence {
		t.Helper()
		seq, err := Generate(context.Background(), Request{Clip: clip, Cover: greyCover(), FPS: 24, Intensity: 1, Seed: seed}, nil)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		return seq
	}

	a, b := run(42), run(42)
	for i := range a.Frames {
		if !bytes.Equal(a.Frames[i].Pix, b.Frames[i].Pix) {
			t.Fatalf("frame %d differs between runs with the same seed", i)
		}
	}

	c := run(43)
	if bytes.Equal(a.Frames[0].Pix, c.Frames[0].Pix) {
		t.Error("different seeds produced identical particles")
	}
}

func TestGenerateRandomSeedRecorded(t *testing.T) {
	seq, err := Generate(context.Background(), Request{Clip: silentClip(0.5), Cover: greyCover(), FPS: 24, Intensity: 1}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if seq.Seed == 0 {
		t.Error("a random seed should be recorded when none is given")
	}
}

func TestGenerateUsesInjectedRand(t *testing.T) {
	rng := &countingRand{}
	seq, err := Generate(context.Background(), Request{Clip: silentClip(0.5), Cover: greyCover(), FPS: 24, Intensity: 1, Rand: rng}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Two draws per particle, 50 particles per frame at intensity 1
	want := len(seq.Frames) * 2 * config.ParticleDensity
	if rng.calls != want {
		t.Errorf("injected generator drew %d values, want %d", rng.calls, want)
	}
}

func TestGenerateBeatFrames(t *testing.T) {
	t.Run("silence never pulses", func(t *testing.T) {
		seq, err := Generate(context.Background(), Request{Clip: silentClip(1.0), Cover: greyCover(), FPS: 30, Intensity: 1, Seed: 1}, nil)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(seq.Series.Beats) != 0 || seq.BeatFrames != 0 {
			t.Errorf("silence produced %d beats and %d pulsed frames", len(seq.Series.Beats), seq.BeatFrames)
		}
	})

	t.Run("pulse count follows beat times", func(t *testing.T) {
		var pulsed int
		seq, err := Generate(context.Background(), Request{Clip: toneClip(1.0), Cover: greyCover(), FPS: 30, Intensity: 1, Seed: 1}, func(p Progress) {
			if p.Beat {
				pulsed++
			}
		})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		want := 0
		for i := range seq.Frames {
			if features.BeatActive(seq.Series.Beats, features.FrameTime(i, 30), config.BeatWindow) {
				want++
			}
		}
		if seq.BeatFrames != want || pulsed != want {
			t.Errorf("BeatFrames = %d, reported %d, want %d", seq.BeatFrames, pulsed, want)
		}
	})
}

func TestGenerateEmptySequence(t *testing.T) {
	// 100 samples is under one frame at 24 fps
	clip := &audio.Clip{Samples: make([]float64, 100), SampleRate: testRate, Channels: 1}

	called := false
	seq, err := Generate(context.Background(), Request{Clip: clip, Cover: greyCover(), FPS: 24, Intensity: 1}, func(Progress) { called = true })
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected ErrEmptySequence, got %v", err)
	}
	if seq != nil || called {
		t.Error("empty sequence should produce no frames and no progress")
	}
}

func TestGenerateValidation(t *testing.T) {
	testCases := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"no cover", Request{Clip: toneClip(0.5), FPS: 24}, renderer.ErrInvalidCover},
		{"rectangular cover", Request{Clip: toneClip(0.5), FPS: 24, Cover: image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))}, renderer.ErrInvalidCover},
		{"zero fps", Request{Clip: toneClip(0.5), Cover: greyCover()}, nil},
		{"negative intensity", Request{Clip: toneClip(0.5), Cover: greyCover(), FPS: 24, Intensity: -1}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(context.Background(), tc.req, nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGenerateLoadError(t *testing.T) {
	_, err := Generate(context.Background(), Request{
		AudioPath: filepath.Join(t.TempDir(), "missing.wav"),
		Cover:     greyCover(),
		FPS:       24,
	}, nil)

	var loadErr *audio.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("expected *audio.LoadError, got %v", err)
	}
}

func TestGenerateFrameErrorAborts(t *testing.T) {
	params := features.DefaultParams()
	params.NumMFCC = 2

	frames := 0
	seq, err := Generate(context.Background(), Request{Clip: toneClip(0.5), Cover: greyCover(), FPS: 24, Intensity: 1, Params: params}, func(Progress) { frames++ })
	if !errors.Is(err, renderer.ErrFeatureArity) {
		t.Fatalf("expected ErrFeatureArity, got %v", err)
	}
	if seq != nil || frames != 0 {
		t.Errorf("failed run returned a sequence or reported %d frames", frames)
	}
}

func TestGenerateCancelled(t *testing.T) {
	t.Run("before the first frame", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Generate(ctx, Request{Clip: toneClip(0.5), Cover: greyCover(), FPS: 24, Intensity: 1}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("between frames", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		frames := 0
		seq, err := Generate(ctx, Request{Clip: toneClip(1.0), Cover: greyCover(), FPS: 24, Intensity: 1}, func(p Progress) {
			frames = p.Frame
			if p.Frame == 3 {
				cancel()
			}
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if seq != nil || frames != 3 {
			t.Errorf("cancelled run rendered %d frames, want 3 and no sequence", frames)
		}
	})
}

func TestGenerateZeroIntensityIsStatic(t *testing.T) {
	seq, err := Generate(context.Background(), Request{Clip: toneClip(0.5), Cover: greyCover(), FPS: 24, Intensity: 0, Seed: 3}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	first := seq.Frames[0]
	for i, f := range seq.Frames[1:] {
		if !bytes.Equal(first.Pix, f.Pix) {
			t.Fatalf("frame %d differs at zero intensity", i+1)
		}
	}

	// Cover centred vertically with the 0.7 blend of grey over black
	want := color.RGBA{90, 90, 90, 255}
	if got := first.RGBAAt(config.Width/2, config.Height/2); got != want {
		t.Errorf("centre pixel = %v, want %v", got, want)
	}
}
