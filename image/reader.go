package image

import (
	"image"
	"image/color"
)

// FromGrid returns the grid as an image.Paletted using palette p.
func FromGrid(grid [][]byte, p color.Palette) *image.Paletted {
	var width int
	if len(grid) > 0 {
		width = len(grid[0])
	}

	m := image.NewPaletted(image.Rect(0, 0, width, len(grid)), p)
	for y, row := range grid {
		copy(m.Pix[y*m.Stride:], row)
	}

	return m
}
