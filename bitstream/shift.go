package bitstream

import "fmt"

func checkShift(count int) {
	if count < 0 || count > 7 {
		panic(fmt.Errorf("%w: shift count %d (must be in [0..7])", ErrInvalidArgument, count))
	}
}

// ShiftLeft shifts b in place towards the most significant bit by count
// bits, treating the whole buffer as a single bit string. Bits shifted out
// of the first byte are lost and the last byte is zero filled. It panics if
// count is outside [0, 7].
func ShiftLeft(b []byte, count int) {
	checkShift(count)
	if count == 0 || len(b) == 0 {
		return
	}

	for i := 0; i < len(b)-1; i++ {
		b[i] = b[i]<<count | b[i+1]>>(bitsPerByte-count)
	}
	b[len(b)-1] <<= count
}

// ShiftRight shifts b in place towards the least significant bit by count
// bits, carrying bits across byte boundaries. Bits shifted out of the last
// byte are lost and the first byte is zero filled. It panics if count is
// outside [0, 7].
func ShiftRight(b []byte, count int) {
	checkShift(count)
	if count == 0 || len(b) == 0 {
		return
	}

	for i := len(b) - 1; i > 0; i-- {
		b[i] = b[i]>>count | b[i-1]<<(bitsPerByte-count)
	}
	b[0] >>= count
}
