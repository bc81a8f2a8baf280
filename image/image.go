/*
Package image converts between decoded tile grids and paletted images.

A grid is indexed [y][x] with one palette index per pixel. Grids are
converted to an image.Paletted using either a caller supplied palette or a
grayscale ramp with one entry per index the color depth allows. Converting
back never quantizes; the image must already be paletted.
*/
package image

import "image/color"

// Grayscale returns a palette of 1<<depth evenly spaced grays from black to
// white.
func Grayscale(depth int) color.Palette {
	n := 1 << uint(depth)
	p := make(color.Palette, n)
	for i := range p {
		v := uint8(0xff)
		if n > 1 {
			v = uint8(i * 0xff / (n - 1))
		}
		p[i] = color.Gray{Y: v}
	}
	return p
}
