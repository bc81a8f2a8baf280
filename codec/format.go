package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bodgit/tilecodec/pattern"
)

// MaxColorDepth is the deepest pixel a Format can describe.
const MaxColorDepth = 8

// Kind selects the storage and resize semantics of a Format.
type Kind int

const (
	// Fixed elements always have the dimensions of the Format.
	Fixed Kind = iota
	// Flow elements may be resized to any dimensions; row pixel
	// patterns are extended to the new width.
	Flow
	// Pattern elements pass every block of the element through a
	// compiled remap pattern.
	Pattern
)

var kinds = [...]string{
	Fixed:   "fixed",
	Flow:    "flow",
	Pattern: "pattern",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kinds) {
		return kinds[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind named by s, ignoring case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kinds {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("codec: unknown kind %q", s)
}

// Plane describes a group of consecutive bitplanes stored together.
type Plane struct {
	ColorDepth int

	// RowInterlace stores each plane of the group for a whole row before
	// the next plane, otherwise all of the bits of a pixel are stored
	// together.
	RowInterlace bool

	// RowPixelPattern gives the horizontal position of each stored pixel
	// within a row. It is repeated to fill the row, each repetition offset
	// by PatternIncrement (or the pattern length if zero). An empty
	// pattern stores pixels left to right.
	RowPixelPattern  []int
	PatternIncrement int
}

// Format describes how the pixels of a graphics element are stored.
type Format struct {
	Name string
	Kind Kind

	Width      int
	Height     int
	ColorDepth int

	Planes []Plane

	// MergePriority maps the nth plane read to its bit significance in
	// the pixel value. An empty priority is the identity.
	MergePriority []int

	// RowStride bits are skipped after each row of each plane group and
	// ElementStride bits after the element.
	RowStride     int
	ElementStride int

	// RemapPatterns and RemapSize describe the remap applied by Pattern
	// formats.
	RemapPatterns []string
	RemapSize     int
}

// StorageSize returns the number of bits a width by height element
// occupies.
func (f *Format) StorageSize(width, height int) int {
	return width*height*f.ColorDepth + len(f.Planes)*height*f.RowStride + f.ElementStride
}

func (f *Format) mergePriority() []int {
	if len(f.MergePriority) == 0 {
		mp := make([]int, f.ColorDepth)
		for i := range mp {
			mp[i] = i
		}
		return mp
	}
	return f.MergePriority
}

func isPermutation(p []int, n int) bool {
	if len(p) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range p {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// rowPatterns returns the row pixel pattern of each plane group extended
// to width.
func (f *Format) rowPatterns(width int) ([][]int, error) {
	rows := make([][]int, len(f.Planes))
	for i, p := range f.Planes {
		items := p.RowPixelPattern
		if len(items) == 0 {
			items = []int{0}
		}
		l, err := pattern.NewRepeatList(items, p.PatternIncrement)
		if err != nil {
			return nil, err
		}
		rows[i] = l.Extend(width)
		if !isPermutation(rows[i], width) {
			return nil, fmt.Errorf("codec: plane %d row pixel pattern does not cover a %d pixel row", i, width)
		}
	}
	return rows, nil
}

// Remap compiles the remap patterns of a Pattern format. Any other kind
// returns nil.
func (f *Format) Remap() (*pattern.Remap, error) {
	if f.Kind != Pattern {
		return nil, nil
	}
	return pattern.Compile(f.RemapPatterns, f.RemapSize)
}

// Validate checks the Format is self-consistent at its own dimensions.
func (f *Format) Validate() error {
	switch {
	case f.Kind < Fixed || f.Kind > Pattern:
		return fmt.Errorf("codec: invalid kind %d", int(f.Kind))
	case f.Width <= 0 || f.Height <= 0:
		return fmt.Errorf("codec: invalid dimensions %dx%d", f.Width, f.Height)
	case f.ColorDepth <= 0 || f.ColorDepth > MaxColorDepth:
		return fmt.Errorf("codec: color depth %d outside [1..%d]", f.ColorDepth, MaxColorDepth)
	case len(f.Planes) == 0:
		return errors.New("codec: no planes")
	case f.RowStride < 0 || f.ElementStride < 0:
		return errors.New("codec: negative stride")
	}

	var depth int
	for i, p := range f.Planes {
		if p.ColorDepth <= 0 {
			return fmt.Errorf("codec: plane %d has color depth %d", i, p.ColorDepth)
		}
		depth += p.ColorDepth
	}
	if depth != f.ColorDepth {
		return fmt.Errorf("codec: planes total %d bits, color depth is %d", depth, f.ColorDepth)
	}

	if !isPermutation(f.mergePriority(), f.ColorDepth) {
		return fmt.Errorf("codec: merge priority is not a permutation of %d planes", f.ColorDepth)
	}

	if _, err := f.rowPatterns(f.Width); err != nil {
		return err
	}

	r, err := f.Remap()
	if err != nil {
		return err
	}
	if r != nil && f.StorageSize(f.Width, f.Height)%r.Size() != 0 {
		return fmt.Errorf("codec: storage size %d is not a multiple of remap size %d", f.StorageSize(f.Width, f.Height), r.Size())
	}

	return nil
}
