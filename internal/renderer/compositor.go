package renderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/linuxmatters/canvasfire/internal/config"
	"github.com/linuxmatters/canvasfire/internal/features"
)

var (
	// ErrInvalidCover is returned when the cover is not a Width×Width square
	ErrInvalidCover = errors.New("cover must be a square the width of the canvas")

	// ErrFeatureArity is returned when a feature slice has fewer than three
	// timbral or pitch-class values
	ErrFeatureArity = errors.New("feature slice needs at least three MFCC and chroma values")

	// ErrNoRand is returned when a compositor is created without a random source
	ErrNoRand = errors.New("compositor needs a random source")
)

// Compositor renders canvas frames from a fixed cover and per-frame features.
// The layers run in a fixed order: pan, colour overlay, beat pulse,
// particles. Only the particle layer draws from rng.
//
// A Compositor is not safe for concurrent use.
type Compositor struct {
	cover  *image.RGBA
	rng    Rand
	width  int
	height int

	base    *image.RGBA
	scratch *image.RGBA
}

// NewCompositor validates cover and returns a compositor for the standard
// 9:16 canvas
func NewCompositor(cover *image.RGBA, rng Rand) (*Compositor, error) {
	if cover == nil {
		return nil, ErrInvalidCover
	}
	b := cover.Bounds()
	if b.Dx() != config.Width || b.Dy() != config.Width {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidCover, b.Dx(), b.Dy())
	}
	if rng == nil {
		return nil, ErrNoRand
	}

	return &Compositor{
		cover:  cover,
		rng:    rng,
		width:  config.Width,
		height: config.Height,
		base:   image.NewRGBA(image.Rect(0, 0, config.Width, config.Height)),
	}, nil
}

// Compose renders the frame for one feature slice. duration is the audio
// length in seconds. The returned image is newly allocated.
func (c *Compositor) Compose(sl features.Slice, duration, intensity float64) (*image.RGBA, error) {
	if len(sl.MFCC) < 3 || len(sl.Chroma) < 3 {
		return nil, fmt.Errorf("%w: got %d and %d", ErrFeatureArity, len(sl.MFCC), len(sl.Chroma))
	}

	maxOffset := (c.height - c.width) / 2
	Pan(c.base, c.cover, PanOffset(sl.Time, duration, intensity, maxOffset))

	ColorOverlay(c.base, OverlayColor(sl.MFCC, intensity), config.OverlayWeight)

	frame := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	zoom := 1.0
	if sl.Beat {
		zoom = PulseZoom(intensity)
	}
	c.scratch = BeatPulse(frame, c.base, c.scratch, zoom)

	Particles(frame, c.rng, ParticleColor(sl.Chroma), ParticleRadius(sl.Onset, intensity), intensity)

	return frame, nil
}
