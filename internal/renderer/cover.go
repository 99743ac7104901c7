package renderer

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadCover decodes a PNG, JPEG, GIF, BMP or WebP image and scales it to a
// side×side square with bilinear interpolation. Non-square images are
// stretched.
func LoadCover(path string, side int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cover: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding cover %s: %w", path, err)
	}

	return ScaleCover(img, side), nil
}

// ScaleCover converts img to an opaque side×side RGBA image
func ScaleCover(img image.Image, side int) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, side, side))

	if bounds.Dx() == side && bounds.Dy() == side {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	}

	// Pixels are premultiplied, so forcing alpha flattens onto black
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
