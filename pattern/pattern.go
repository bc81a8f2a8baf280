/*
Package pattern implements the index patterns used to describe where bits
and pixels of a tile format belong.

Remap patterns are written with one letter per bit. The alphabet is A-Z,
a-z, 2-9 and !?@* (64 symbols); each symbol names a group of up to eight
output bits so the nth occurrence of the symbol with rank r, across all of
the pattern strings in order, is mapped to output bit r*8+n.
*/
package pattern

import "fmt"

const (
	alphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz23456789!?@*"
	maxOccurrences = 8
)

var ranks = func() (r [256]int8) {
	for i := range r {
		r[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		r[alphabet[i]] = int8(i)
	}
	return
}()

// CompileError is returned by Compile when a pattern is malformed.
type CompileError struct {
	Reason string
}

func (e *CompileError) Error() string {
	return "pattern: " + e.Reason
}

func failed(format string, a ...interface{}) error {
	return &CompileError{Reason: fmt.Sprintf(format, a...)}
}

// Remap is a compiled remap pattern. Forward maps the nth bit in reading
// order to its output bit and Inverse maps it back.
type Remap struct {
	Forward []int
	Inverse []int
}

// Size returns the number of bits the Remap covers.
func (r *Remap) Size() int {
	return len(r.Forward)
}

// Compile compiles the letter patterns, one per plane, into a Remap of
// size bits. Any malformed pattern results in a *CompileError.
func Compile(patterns []string, size int) (*Remap, error) {
	if size <= 0 {
		return nil, failed("pattern size %d must be greater than zero", size)
	}

	var length int
	for i, p := range patterns {
		if len(p) == 0 {
			return nil, failed("pattern %d is empty", i)
		}
		length += len(p)
	}
	if length != size {
		return nil, failed("patterns contain %d characters, expected %d", length, size)
	}

	var occurrences [len(alphabet)]int
	r := &Remap{
		Forward: make([]int, 0, size),
		Inverse: make([]int, size),
	}

	for _, p := range patterns {
		for i := 0; i < len(p); i++ {
			rank := ranks[p[i]]
			if rank < 0 {
				return nil, failed("invalid character %q", p[i])
			}
			if occurrences[rank] >= maxOccurrences {
				return nil, failed("character %q occurs more than %d times", p[i], maxOccurrences)
			}
			slot := int(rank)*maxOccurrences + occurrences[rank]
			if slot >= size {
				return nil, failed("character %q maps to bit %d outside of pattern size %d", p[i], slot, size)
			}
			occurrences[rank]++

			r.Inverse[slot] = len(r.Forward)
			r.Forward = append(r.Forward, slot)
		}
	}

	return r, nil
}
