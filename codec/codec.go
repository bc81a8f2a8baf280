/*
Package codec implements a generalized bitplane codec for indexed tile
graphics.

A Format describes how the bits of each pixel are spread over one or more
groups of bitplanes. Decoding deinterleaves the planes of an encoded element
and merges them into one index per pixel, the first plane (after merge
priority is applied) becoming the least significant bit. Encoding is the
exact inverse.

A Codec owns scratch buffers that are reused between calls and so must not
be used from more than one goroutine at a time.
*/
package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/bodgit/tilecodec/bitstream"
	"github.com/bodgit/tilecodec/pattern"
)

// ErrFixedSize is returned when resizing a Fixed codec.
var ErrFixedSize = errors.New("codec: format cannot be resized")

// Codec decodes and encodes elements of a single Format.
type Codec struct {
	format *Format
	remap  *pattern.Remap

	width   int
	height  int
	storage int
	rows    [][]int

	// Reused between calls
	planes  [][]byte
	scratch []byte
	element []byte
}

// New returns a Codec for f at the dimensions of f.
func New(f *Format) (*Codec, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	r, err := f.Remap()
	if err != nil {
		return nil, err
	}

	c := &Codec{
		format: f,
		remap:  r,
	}
	if err := c.resize(f.Width, f.Height); err != nil {
		return nil, err
	}

	return c, nil
}

// Format returns the Format of c.
func (c *Codec) Format() *Format {
	return c.format
}

// Width returns the element width in pixels.
func (c *Codec) Width() int {
	return c.width
}

// Height returns the element height in pixels.
func (c *Codec) Height() int {
	return c.height
}

// StorageSize returns the number of bits occupied by one element.
func (c *Codec) StorageSize() int {
	return c.storage
}

// Resize changes the element dimensions. Fixed formats cannot be resized
// and Pattern formats only to dimensions whose storage size is a multiple
// of the remap size.
func (c *Codec) Resize(width, height int) error {
	if width == c.width && height == c.height {
		return nil
	}

	switch c.format.Kind {
	case Fixed:
		return ErrFixedSize
	case Pattern:
		if size := c.format.StorageSize(width, height); size%c.remap.Size() != 0 {
			return fmt.Errorf("codec: storage size %d is not a multiple of remap size %d", size, c.remap.Size())
		}
	}

	return c.resize(width, height)
}

func (c *Codec) resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("codec: invalid dimensions %dx%d", width, height)
	}

	rows, err := c.format.rowPatterns(width)
	if err != nil {
		return err
	}

	c.width, c.height = width, height
	c.storage = c.format.StorageSize(width, height)
	c.rows = rows

	c.planes = make([][]byte, c.format.ColorDepth)
	for i := range c.planes {
		c.planes[i] = make([]byte, width*height)
	}
	if c.remap != nil {
		c.scratch = make([]byte, (c.storage+7)/8)
	}
	c.element = make([]byte, (c.storage+7+7)/8)

	return nil
}

// NewGrid returns a zeroed grid of pixels sized for the current element
// dimensions.
func (c *Codec) NewGrid() [][]byte {
	pix := make([]byte, c.width*c.height)
	grid := make([][]byte, c.height)
	for y := range grid {
		grid[y] = pix[y*c.width : (y+1)*c.width : (y+1)*c.width]
	}
	return grid
}

func (c *Codec) checkGrid(grid [][]byte) error {
	if len(grid) != c.height {
		return fmt.Errorf("%w: grid has %d rows, expected %d", bitstream.ErrInvalidArgument, len(grid), c.height)
	}
	for y, row := range grid {
		if len(row) != c.width {
			return fmt.Errorf("%w: grid row %d has %d pixels, expected %d", bitstream.ErrInvalidArgument, y, len(row), c.width)
		}
	}
	return nil
}

func (c *Codec) checkEncoded(b []byte) error {
	if len(b)*8 < c.storage {
		return fmt.Errorf("%w: %d byte buffer shorter than %d bit element", bitstream.ErrInvalidArgument, len(b), c.storage)
	}
	return nil
}

// permute moves every bit i of each block of src to bit p[i] of the same
// block in dst.
func (c *Codec) permute(dst, src []byte, p []int) error {
	r, err := bitstream.OpenRead(src, c.storage)
	if err != nil {
		return err
	}
	w, err := bitstream.OpenWrite(dst, c.storage)
	if err != nil {
		return err
	}

	for base := 0; base < c.storage; base += len(p) {
		for _, j := range p {
			bit, err := r.ReadBit()
			if err != nil {
				return err
			}
			if err := w.Seek(base + j); err != nil {
				return err
			}
			if err := w.WriteBit(bit); err != nil {
				return err
			}
		}
	}

	return nil
}

// Decode decodes the element stored left-packed in b and returns a new
// grid of pixel indices, indexed [y][x].
func (c *Codec) Decode(b []byte) ([][]byte, error) {
	grid := c.NewGrid()
	if err := c.DecodeInto(b, grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// DecodeInto decodes the element stored left-packed in b into grid which
// must match the element dimensions.
func (c *Codec) DecodeInto(b []byte, grid [][]byte) error {
	if err := c.checkEncoded(b); err != nil {
		return err
	}
	if err := c.checkGrid(grid); err != nil {
		return err
	}

	if c.remap != nil {
		if err := c.permute(c.scratch, b, c.remap.Forward); err != nil {
			return err
		}
		b = c.scratch
	}

	bs, err := bitstream.OpenRead(b, c.storage)
	if err != nil {
		return err
	}

	mp := c.format.mergePriority()
	plane := 0

	// Deinterleave into separate bitplanes
	for i, ip := range c.format.Planes {
		row := c.rows[i]
		for y := 0; y < c.height; y++ {
			pos := y * c.width
			if ip.RowInterlace {
				for cp := plane; cp < plane+ip.ColorDepth; cp++ {
					dst := c.planes[mp[cp]]
					for x := 0; x < c.width; x++ {
						if dst[pos+row[x]], err = bs.ReadBit(); err != nil {
							return err
						}
					}
				}
			} else {
				for x := 0; x < c.width; x++ {
					for cp := plane; cp < plane+ip.ColorDepth; cp++ {
						if c.planes[mp[cp]][pos+row[x]], err = bs.ReadBit(); err != nil {
							return err
						}
					}
				}
			}
			if err := bs.Seek(bs.Position() + c.format.RowStride); err != nil {
				return err
			}
		}
		plane += ip.ColorDepth
	}

	// Merge planes into pixel indices
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			pos := y*c.width + x
			var v byte
			for i, p := range c.planes {
				v |= p[pos] << uint(i)
			}
			grid[y][x] = v
		}
	}

	return nil
}

// Encode encodes grid into b, left-packed, and returns it. Only the bits
// describing pixels are written so stride bits already in b are kept. If
// b is nil a zeroed buffer is allocated.
func (c *Codec) Encode(grid [][]byte, b []byte) ([]byte, error) {
	if err := c.checkGrid(grid); err != nil {
		return nil, err
	}
	if b == nil {
		b = make([]byte, (c.storage+7)/8)
	}
	if err := c.checkEncoded(b); err != nil {
		return nil, err
	}

	// Split pixel indices into planes
	for y, row := range grid {
		for x, v := range row {
			pos := y*c.width + x
			for i, p := range c.planes {
				p[pos] = v >> uint(i) & 1
			}
		}
	}

	dst := b
	if c.remap != nil {
		if err := c.permute(c.scratch, b, c.remap.Forward); err != nil {
			return nil, err
		}
		dst = c.scratch
	}

	bs, err := bitstream.OpenWrite(dst, c.storage)
	if err != nil {
		return nil, err
	}

	mp := c.format.mergePriority()
	plane := 0

	// Interleave planes
	for i, ip := range c.format.Planes {
		row := c.rows[i]
		for y := 0; y < c.height; y++ {
			pos := y * c.width
			if ip.RowInterlace {
				for cp := plane; cp < plane+ip.ColorDepth; cp++ {
					src := c.planes[mp[cp]]
					for x := 0; x < c.width; x++ {
						if err := bs.WriteBit(src[pos+row[x]]); err != nil {
							return nil, err
						}
					}
				}
			} else {
				for x := 0; x < c.width; x++ {
					for cp := plane; cp < plane+ip.ColorDepth; cp++ {
						if err := bs.WriteBit(c.planes[mp[cp]][pos+row[x]]); err != nil {
							return nil, err
						}
					}
				}
			}
			if err := bs.Seek(bs.Position() + c.format.RowStride); err != nil {
				return nil, err
			}
		}
		plane += ip.ColorDepth
	}

	if c.remap != nil {
		if err := c.permute(b, c.scratch, c.remap.Inverse); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// DecodeElement reads the element at a from r and decodes it. If the
// element lies beyond the end of r, bitstream.ErrNoData is returned.
func (c *Codec) DecodeElement(r io.ReadSeeker, a bitstream.Address) ([][]byte, error) {
	if err := bitstream.ReadShifted(r, a, c.storage, c.element); err != nil {
		return nil, err
	}
	return c.Decode(c.element)
}

// EncodeElement encodes grid and writes it to rw at a, preserving any
// surrounding bits. If the element lies beyond the end of rw,
// bitstream.ErrNoData is returned.
func (c *Codec) EncodeElement(rw io.ReadWriteSeeker, a bitstream.Address, grid [][]byte) error {
	if err := bitstream.ReadShifted(rw, a, c.storage, c.element); err != nil {
		return err
	}
	if _, err := c.Encode(grid, c.element); err != nil {
		return err
	}
	return bitstream.WriteShifted(rw, a, c.storage, c.element)
}
