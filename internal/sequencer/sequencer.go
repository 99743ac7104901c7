// Package sequencer turns an audio clip and a cover image into an ordered
// sequence of canvas frames.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	"github.com/linuxmatters/canvasfire/internal/audio"
	"github.com/linuxmatters/canvasfire/internal/features"
	"github.com/linuxmatters/canvasfire/internal/renderer"
	"github.com/rs/zerolog"
)

// ErrEmptySequence is returned when the audio is too short for one frame
var ErrEmptySequence = errors.New("audio is too short to produce a frame")

// Request describes one canvas generation run
type Request struct {
	AudioPath string      // Decoded when Clip is nil
	Clip      *audio.Clip // Optional pre-decoded audio
	Cover     *image.RGBA // Width×Width square
	Duration  float64     // Maximum seconds of audio to use
	FPS       int
	Intensity float64
	Seed      uint64          // Particle seed; 0 picks one at random
	Params    features.Params // Zero value selects features.DefaultParams
	Rand      renderer.Rand   // Overrides Seed when set
	Logger    zerolog.Logger

	// OnAnalysed, when set, receives the feature series before rendering starts
	OnAnalysed func(clip *audio.Clip, series *features.Series, took time.Duration)
}

// Progress reports one finished frame
type Progress struct {
	Frame       int // 1-based
	TotalFrames int
	Time        float64
	Beat        bool
	Onset       float64
	Elapsed     time.Duration
	Image       *image.RGBA
}

// Sequence is the result of a run
type Sequence struct {
	Frames     []*image.RGBA
	Clip       *audio.Clip
	Series     *features.Series
	FPS        int
	Seed       uint64
	BeatFrames int // Frames rendered with the beat pulse

	AnalysisTime time.Duration
	RenderTime   time.Duration
}

// Duration returns the audio duration the frames cover
func (s *Sequence) Duration() float64 {
	return s.Series.Duration
}

// NumFrames returns floor(duration × fps)
func NumFrames(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(duration * float64(fps))
}

// Generate decodes and analyses the audio once, then renders every frame in
// order. Cancellation is checked between frames. Any failure aborts the run
// without a partial sequence. onProgress may be nil.
func Generate(ctx context.Context, req Request, onProgress func(Progress)) (*Sequence, error) {
	log := req.Logger.With().Str("component", "sequencer").Logger()

	if req.FPS <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", req.FPS)
	}
	if req.Intensity < 0 {
		return nil, fmt.Errorf("invalid intensity %g", req.Intensity)
	}

	seed := req.Seed
	rng := req.Rand
	if rng == nil {
		if seed == 0 {
			seed = rand.Uint64()
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	comp, err := renderer.NewCompositor(req.Cover, rng)
	if err != nil {
		return nil, err
	}

	analysisStart := time.Now()

	clip := req.Clip
	if clip == nil {
		clip, err = audio.Load(req.AudioPath, req.Duration)
		if err != nil {
			return nil, err
		}
	}

	total := NumFrames(clip.Duration(), req.FPS)
	if total == 0 {
		return nil, fmt.Errorf("%w: %.3fs at %d fps", ErrEmptySequence, clip.Duration(), req.FPS)
	}

	params := req.Params
	if params == (features.Params{}) {
		params = features.DefaultParams()
	}
	series, err := features.Extract(clip, params)
	if err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}
	analysisTime := time.Since(analysisStart)

	log.Debug().
		Float64("duration", series.Duration).
		Int("sample_rate", series.SampleRate).
		Int("analysis_frames", series.NumFrames()).
		Int("beats", len(series.Beats)).
		Float64("tempo", series.Tempo).
		Dur("took", analysisTime).
		Msg("audio analysed")

	if req.OnAnalysed != nil {
		req.OnAnalysed(clip, series, analysisTime)
	}

	seq := &Sequence{
		Frames:       make([]*image.RGBA, 0, total),
		Clip:         clip,
		Series:       series,
		FPS:          req.FPS,
		Seed:         seed,
		AnalysisTime: analysisTime,
	}

	renderStart := time.Now()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t := features.FrameTime(i, req.FPS)
		sl := series.SampleAt(t)

		frame, err := comp.Compose(sl, series.Duration, req.Intensity)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		seq.Frames = append(seq.Frames, frame)
		if sl.Beat {
			seq.BeatFrames++
		}

		if onProgress != nil {
			onProgress(Progress{
				Frame:       i + 1,
				TotalFrames: total,
				Time:        t,
				Beat:        sl.Beat,
				Onset:       sl.Onset,
				Elapsed:     time.Since(renderStart),
				Image:       frame,
			})
		}
	}
	seq.RenderTime = time.Since(renderStart)

	log.Debug().
		Int("frames", total).
		Int("beat_frames", seq.BeatFrames).
		Dur("took", seq.RenderTime).
		Msg("frames rendered")

	return seq, nil
}
