package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/linuxmatters/canvasfire/internal/config"
)

// PreviewConfig holds configuration for the canvas preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig returns a portrait preview. Terminal cells are about
// twice as tall as they are wide, so each cell covers a 1:2 pixel region.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  config.Width / 30,
		Height: config.Height / 60,
	}
}

// DownsampleFrame averages each cell-sized region of frame into one colour
func DownsampleFrame(frame *image.RGBA, cfg PreviewConfig) [][]color.RGBA {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}

	bounds := frame.Bounds()
	cellWidth := max(bounds.Dx()/cfg.Width, 1)
	cellHeight := max(bounds.Dy()/cfg.Height, 1)

	preview := make([][]color.RGBA, cfg.Height)
	for row := range preview {
		preview[row] = make([]color.RGBA, cfg.Width)
		for col := range preview[row] {
			x0 := bounds.Min.X + col*cellWidth
			y0 := bounds.Min.Y + row*cellHeight

			var sumR, sumG, sumB, n uint32
			for y := y0; y < y0+cellHeight && y < bounds.Max.Y; y++ {
				for x := x0; x < x0+cellWidth && x < bounds.Max.X; x++ {
					c := frame.RGBAAt(x, y)
					sumR += uint32(c.R)
					sumG += uint32(c.G)
					sumB += uint32(c.B)
					n++
				}
			}

			if n > 0 {
				preview[row][col] = color.RGBA{R: uint8(sumR / n), G: uint8(sumG / n), B: uint8(sumB / n), A: 255}
			}
		}
	}

	return preview
}

// RenderPreview draws the preview grid with ANSI 24-bit background colours
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	var b strings.Builder
	border := strings.Repeat("─", len(preview[0]))

	b.WriteString("  Canvas Preview:\n")
	b.WriteString("  ┌" + border + "┐\n")
	for _, row := range preview {
		b.WriteString("  │")
		for _, px := range row {
			fmt.Fprintf(&b, "\x1b[48;2;%d;%d;%dm \x1b[0m", px.R, px.G, px.B)
		}
		b.WriteString("│\n")
	}
	b.WriteString("  └" + border + "┘\n")

	return b.String()
}
