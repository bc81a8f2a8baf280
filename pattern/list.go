package pattern

import "errors"

var errEmpty = errors.New("pattern: list is empty")

// RepeatList extends a short sequence of indices indefinitely. Beyond the
// end of the sequence it repeats, each repetition offset by the increment.
type RepeatList struct {
	items     []int
	increment int
}

// NewRepeatList returns a RepeatList over items where each repetition is
// offset by increment. An increment of zero or less means len(items),
// producing contiguous blocks.
func NewRepeatList(items []int, increment int) (*RepeatList, error) {
	if len(items) == 0 {
		return nil, errEmpty
	}
	if increment <= 0 {
		increment = len(items)
	}
	return &RepeatList{
		items:     append([]int(nil), items...),
		increment: increment,
	}, nil
}

// Len returns the length of the underlying sequence.
func (l *RepeatList) Len() int {
	return len(l.items)
}

// Increment returns the offset applied to each repetition.
func (l *RepeatList) Increment() int {
	return l.increment
}

// At returns the ith index, i >= 0.
func (l *RepeatList) At(i int) int {
	n := len(l.items)
	return l.items[i%n] + i/n*l.increment
}

// Extend returns the first n indices.
func (l *RepeatList) Extend(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

// BroadcastList cycles through a sequence of indices without offsetting
// them. Negative indices wrap from the end.
type BroadcastList struct {
	items []int
}

// NewBroadcastList returns a BroadcastList over items.
func NewBroadcastList(items []int) (*BroadcastList, error) {
	if len(items) == 0 {
		return nil, errEmpty
	}
	return &BroadcastList{
		items: append([]int(nil), items...),
	}, nil
}

// Len returns the length of the underlying sequence.
func (l *BroadcastList) Len() int {
	return len(l.items)
}

// At returns the ith index.
func (l *BroadcastList) At(i int) int {
	n := len(l.items)
	return l.items[(i%n+n)%n]
}
