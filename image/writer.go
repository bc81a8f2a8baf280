package image

import (
	"errors"
	"image"
)

var (
	errWrongSize   = errors.New("image: image is wrong size")
	errNotPaletted = errors.New("image: image is not paletted")
	errBadIndex    = errors.New("image: color index exceeds color depth")
)

// ToGrid returns the palette indices of m, which must be width by height
// pixels and paletted, as a grid. Every index must fit within depth bits.
func ToGrid(m image.Image, width, height, depth int) ([][]byte, error) {
	b := m.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, errWrongSize
	}

	pm, ok := m.(image.PalettedImage)
	if !ok {
		return nil, errNotPaletted
	}

	grid := make([][]byte, height)
	for y := range grid {
		grid[y] = make([]byte, width)
		for x := range grid[y] {
			i := pm.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
			if int(i) >= 1<<uint(depth) {
				return nil, errBadIndex
			}
			grid[y][x] = i
		}
	}

	return grid, nil
}
