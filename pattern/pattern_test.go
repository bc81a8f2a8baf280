package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	r, err := Compile([]string{"AAAAAAAACCCCCCCCBBBBBBBB"}, 24)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 16, 17, 18, 19, 20, 21, 22, 23, 8, 9, 10, 11, 12, 13, 14, 15}, r.Forward)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 16, 17, 18, 19, 20, 21, 22, 23, 8, 9, 10, 11, 12, 13, 14, 15}, r.Inverse)
	assert.Equal(t, 24, r.Size())

	// Occurrences carry over between planes
	r, err = Compile([]string{"ABBA", "AABB", "AAAABBBB"}, 16)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 8, 9, 1, 2, 3, 10, 11, 4, 5, 6, 7, 12, 13, 14, 15}, r.Forward)
	for i, slot := range r.Forward {
		assert.Equal(t, i, r.Inverse[slot])
	}
}

func TestCompileAlphabet(t *testing.T) {
	var b strings.Builder
	for i := 0; i < len(alphabet); i++ {
		b.WriteString(strings.Repeat(alphabet[i:i+1], maxOccurrences))
	}

	r, err := Compile([]string{b.String()}, 512)
	require.NoError(t, err)
	for i, slot := range r.Forward {
		assert.Equal(t, i, slot)
	}
}

func TestCompileFailures(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		size     int
	}{
		{"zero size", []string{""}, 0},
		{"negative size", []string{"A"}, -1},
		{"empty pattern", []string{"AAAA", ""}, 4},
		{"too short", []string{"AAAA"}, 5},
		{"too long", []string{"AAAA", "A"}, 4},
		{"too many occurrences", []string{"AAAAAAAACCCCCCCCCBBBBBBB"}, 24},
		{"slot out of range", []string{"AAAAAAAAC"}, 9},
		{"invalid character", []string{"AAAA#AAA"}, 8},
		{"invalid digit", []string{"AAAA1AAA"}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compile(tt.patterns, tt.size)
			assert.Nil(t, r)
			require.Error(t, err)
			ce, ok := err.(*CompileError)
			require.True(t, ok)
			assert.NotEmpty(t, ce.Reason)
		})
	}
}

func TestRepeatList(t *testing.T) {
	l, err := NewRepeatList([]int{0, 1, 2, 3, 7, 6, 5, 4}, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, l.Len())
	assert.Equal(t, 8, l.Increment())
	assert.Equal(t, []int{0, 1, 2, 3, 7, 6, 5, 4, 8, 9, 10, 11, 15, 14, 13, 12, 16, 17}, l.Extend(18))

	l, err = NewRepeatList([]int{1, 0}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 5, 4, 9, 8}, l.Extend(6))
	assert.Equal(t, 41, l.At(20))

	_, err = NewRepeatList(nil, 1)
	assert.Error(t, err)
}

func TestBroadcastList(t *testing.T) {
	l, err := NewBroadcastList([]int{3, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 3, l.At(0))
	assert.Equal(t, 4, l.At(5))
	assert.Equal(t, 4, l.At(-1))
	assert.Equal(t, 1, l.At(-5))
	assert.Equal(t, 3, l.At(-3))

	_, err = NewBroadcastList([]int{})
	assert.Error(t, err)
}
