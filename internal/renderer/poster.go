package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/canvasfire/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// captionColor is the brand yellow used for poster text
func captionColor() color.RGBA {
	return color.RGBA{R: config.TextColorR, G: config.TextColorG, B: config.TextColorB, A: 255}
}

// SavePoster writes frame as a still image to outputPath, with title drawn
// across the band above the resting cover position when title is non-empty.
// The format follows the extension: .jpg/.jpeg for JPEG, PNG otherwise.
func SavePoster(outputPath string, frame *image.RGBA, title string) error {
	poster := image.NewRGBA(frame.Bounds())
	copy(poster.Pix, frame.Pix)

	if strings.TrimSpace(title) != "" {
		if err := drawCaption(poster, title); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating poster directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating poster: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, poster, &jpeg.Options{Quality: 92})
	default:
		err = png.Encode(f, poster)
	}
	if err != nil {
		return fmt.Errorf("encoding poster: %w", err)
	}
	return nil
}

// drawCaption renders title in two lines, sized to fit the top band
func drawCaption(img *image.RGBA, title string) error {
	parsed, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return fmt.Errorf("parsing caption font: %w", err)
	}

	line1, line2 := splitTitle(title)
	band := (img.Bounds().Dy() - img.Bounds().Dx()) / 2
	size := fitFontSize(parsed, img.Bounds().Dx(), band, line1, line2)

	face := truetype.NewFace(parsed, &truetype.Options{Size: size, DPI: 72})
	defer face.Close()

	drawRotatedCaption(img, face, line1, line2)
	return nil
}

// splitTitle splits the title into 2 roughly equal lines
func splitTitle(title string) (string, string) {
	words := strings.Fields(title)
	switch len(words) {
	case 0:
		return "", ""
	case 1:
		return words[0], ""
	}

	mid := len(words) / 2
	return strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")
}

// fitFontSize finds the largest size at which both lines fit between the
// side margins and their block ends above band
func fitFontSize(parsed *truetype.Font, width, band int, line1, line2 string) float64 {
	maxWidth := width - 2*config.PosterMargin

	for size := 96.0; size > 10.0; size -= 2.0 {
		face := truetype.NewFace(parsed, &truetype.Options{Size: size, DPI: 72})
		w1, b1 := measureText(face, line1)
		w2, b2 := measureText(face, line2)
		face.Close()

		if w1 > maxWidth || w2 > maxWidth {
			continue
		}

		h1 := (b1.Max.Y - b1.Min.Y).Ceil()
		h2 := (b2.Max.Y - b2.Min.Y).Ceil()
		if config.PosterMargin+h1+int(size*0.5)+h2 <= band {
			return size
		}
	}

	return 10.0
}

// measureText returns the width and bounds of rendered text.
// bounds.Min.Y is negative (ascent), bounds.Max.Y positive (descent).
func measureText(face font.Face, text string) (int, fixed.Rectangle26_6) {
	d := &font.Drawer{Face: face}
	bounds, _ := d.BoundString(text)
	return (bounds.Max.X - bounds.Min.X).Ceil(), bounds
}

// drawRotatedCaption draws both lines on a scratch image, tilts it
// clockwise and composites it so the highest rotated point sits on the top
// margin
func drawRotatedCaption(img *image.RGBA, face font.Face, line1, line2 string) {
	w1, b1 := measureText(face, line1)
	w2, b2 := measureText(face, line2)

	spacing := int(float64(face.Metrics().Height) / 64.0 * 0.5)
	h1 := (b1.Max.Y - b1.Min.Y).Ceil()
	h2 := (b2.Max.Y - b2.Min.Y).Ceil()
	blockH := h1 + spacing + h2

	// Room for the block at any small angle
	side := int(float64(max(w1, w2)+blockH) * 1.5)
	scratch := image.NewRGBA(image.Rect(0, 0, side, side))

	top1 := side/2 - blockH/2
	top2 := top1 + h1 + spacing
	drawCentredLine(scratch, face, line1, top1-b1.Min.Y.Ceil())
	drawCentredLine(scratch, face, line2, top2-b2.Min.Y.Ceil())

	angle := -config.PosterTextRotationDegrees * math.Pi / 180.0
	cos, sin := math.Cos(angle), math.Sin(angle)
	c := float64(side) / 2.0

	rot := f64.Aff3{
		cos, -sin, c - cos*c + sin*c,
		sin, cos, c - sin*c - cos*c,
	}
	rotated := image.NewRGBA(scratch.Bounds())
	draw.BiLinear.Transform(rotated, rot, scratch, scratch.Bounds(), draw.Over, nil)

	// After a clockwise tilt the top right corner of line 1 is highest
	dx := float64(w1) / 2.0
	dy := float64(top1) - c
	highest := sin*dx + cos*dy + c

	x := (img.Bounds().Dx() - side) / 2
	y := int(float64(config.PosterMargin) - highest)
	draw.Draw(img, image.Rect(x, y, x+side, y+side), rotated, image.Point{}, draw.Over)
}

// drawCentredLine draws text centred horizontally with its baseline at y
func drawCentredLine(img *image.RGBA, face font.Face, text string, y int) {
	if text == "" {
		return
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(captionColor()),
		Face: face,
	}
	w, _ := measureText(face, text)
	d.Dot = freetype.Pt((img.Bounds().Dx()-w)/2, y)
	d.DrawString(text)
}
