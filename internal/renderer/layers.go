package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/linuxmatters/canvasfire/internal/config"
	"golang.org/x/image/draw"
)

// Rand is the source of randomness for particle placement.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// PanOffset returns the vertical position of the cover for time t. The cover
// rests at maxOffset and swings by up to maxOffset×intensity once per clip.
func PanOffset(t, duration, intensity float64, maxOffset int) int {
	if duration <= 0 {
		return maxOffset
	}
	swing := math.Sin(t*2*math.Pi/duration) * float64(maxOffset) * intensity
	// Snap away rounding noise so t and t+duration truncate alike
	swing = math.Round(swing*1e9) / 1e9
	return maxOffset + int(swing)
}

// Pan clears dst to black and places cover at the top of row y. Rows of the
// cover falling outside dst are clipped.
func Pan(dst, cover *image.RGBA, y int) {
	clear(dst.Pix)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}

	r := cover.Bounds().Sub(cover.Bounds().Min).Add(image.Pt(0, y))
	draw.Draw(dst, r, cover, cover.Bounds().Min, draw.Src)
}

// OverlayColor converts the first three timbral coefficients into an RGB
// colour, clamping each channel to [0, 255]
func OverlayColor(mfcc []float64, intensity float64) color.RGBA {
	var ch [3]uint8
	for i := range ch {
		ch[i] = clampByte(mfcc[i] * intensity * config.ColorScale)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}
}

// ColorOverlay blends a solid colour over img in place with a fixed weight
func ColorOverlay(img *image.RGBA, c color.RGBA, weight float64) {
	// One table per channel: every source byte maps to a single blended value
	var lut [3][256]uint8
	overlay := [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	for ch := 0; ch < 3; ch++ {
		for v := 0; v < 256; v++ {
			lut[ch][v] = clampByte(math.Round((1-weight)*float64(v) + weight*overlay[ch]))
		}
	}

	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = lut[0][pix[i]]
		pix[i+1] = lut[1][pix[i+1]]
		pix[i+2] = lut[2][pix[i+2]]
	}
}

// PulseZoom returns the beat pulse magnification for intensity
func PulseZoom(intensity float64) float64 {
	return 1 + config.PulseZoom*intensity
}

// BeatPulse magnifies src about its centre by zoom and crops back to the
// original size, writing into dst. scratch holds the enlarged image and is
// reallocated when too small; the possibly new scratch is returned. A zoom
// of 1 or less copies src unchanged.
func BeatPulse(dst, src, scratch *image.RGBA, zoom float64) *image.RGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if zoom <= 1 {
		copy(dst.Pix, src.Pix)
		return scratch
	}

	zw := int(math.Round(float64(w) * zoom))
	zh := int(math.Round(float64(h) * zoom))
	if scratch == nil || scratch.Bounds().Dx() != zw || scratch.Bounds().Dy() != zh {
		scratch = image.NewRGBA(image.Rect(0, 0, zw, zh))
	}
	draw.BiLinear.Scale(scratch, scratch.Bounds(), src, src.Bounds(), draw.Src, nil)

	offset := image.Pt((zw-w)/2, (zh-h)/2)
	draw.Draw(dst, dst.Bounds(), scratch, offset, draw.Src)
	return scratch
}

// ParticleColor converts the first three pitch-class energies into a colour
func ParticleColor(chroma []float64) color.RGBA {
	return color.RGBA{
		R: clampByte(chroma[0] * 255),
		G: clampByte(chroma[1] * 255),
		B: clampByte(chroma[2] * 255),
		A: 0xff,
	}
}

// ParticleRadius scales onset strength into a disc radius of at least 1
func ParticleRadius(onset, intensity float64) int {
	return int(math.Max(1, onset*intensity*config.RadiusScale))
}

// Particles scatters floor(ParticleDensity×intensity) filled discs over img
// at positions drawn from rng, x before y for each disc
func Particles(img *image.RGBA, rng Rand, c color.RGBA, radius int, intensity float64) int {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	count := max(int(config.ParticleDensity*intensity), 0)

	for i := 0; i < count; i++ {
		x := rng.IntN(w)
		y := rng.IntN(h)
		fillDisc(img, x, y, radius, c)
	}
	return count
}

// fillDisc paints every pixel within radius of (cx, cy), clipped to img
func fillDisc(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	b := img.Bounds()
	r2 := radius * radius

	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			x := cx + dx
			if x < b.Min.X || x >= b.Max.X || dx*dx+dy*dy > r2 {
				continue
			}
			off := img.PixOffset(x, y)
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = 0xff
		}
	}
}

func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
