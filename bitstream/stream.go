package bitstream

import (
	"fmt"
	"io"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// span returns the number of bytes covered by n bits starting at a, and
// checks both b and the stream are large enough.
func span(s io.Seeker, a Address, n int, b []byte) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, n)
	}
	if a.Bit >= bitsPerByte {
		return 0, fmt.Errorf("%w: bit offset %d", ErrInvalidArgument, a.Bit)
	}

	total := bytesFor(int(a.Bit) + n)
	if len(b) < total {
		return 0, fmt.Errorf("%w: %d byte buffer cannot hold %d bits at bit offset %d", ErrInvalidArgument, len(b), n, a.Bit)
	}

	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if a.Byte+uint64(total) > uint64(size) {
		return 0, ErrNoData
	}

	if _, err := s.Seek(int64(a.Byte), io.SeekStart); err != nil {
		return 0, err
	}

	return total, nil
}

// trailing returns the number of bits after the range in the last byte.
func trailing(a Address, n, total int) uint {
	return uint(total*bitsPerByte - n - int(a.Bit))
}

// ReadUnshifted reads n bits at a into b, leaving each bit at the same
// position within its byte as in the stream. Bits before a.Bit in the first
// byte and after the range in the last byte are cleared. b must hold at
// least ceil((a.Bit+n)/8) bytes.
func ReadUnshifted(r io.ReadSeeker, a Address, n int, b []byte) error {
	total, err := span(r, a, n, b)
	if err != nil || total == 0 {
		return err
	}

	if err := readFull(r, b[:total]); err != nil {
		return err
	}

	b[0] &= byte(1<<(bitsPerByte-uint(a.Bit)) - 1)
	b[total-1] &^= byte(1<<trailing(a, n, total) - 1)

	return nil
}

// ReadShifted reads n bits at a into b, left-packed so that the bit at a
// becomes the most significant bit of b[0]. b must hold at least
// ceil((a.Bit+n)/8) bytes as it is used for staging.
func ReadShifted(r io.ReadSeeker, a Address, n int, b []byte) error {
	if err := ReadUnshifted(r, a, n, b); err != nil {
		return err
	}

	total := bytesFor(int(a.Bit) + n)
	switch {
	case total == 0:
	case total == 1:
		b[0] <<= a.Bit
	default:
		ShiftLeft(b[:total], int(a.Bit))
	}

	return nil
}

// mergeByte returns original with the bits from first up to but not
// including last (MSB-first) replaced by those of b.
func mergeByte(original, b byte, first, last uint) byte {
	mask := byte(0xff>>first) &^ byte(0xff>>last)
	return original&^mask | b&mask
}

// WriteUnshifted writes n bits from b to the stream at a. The bits are
// expected at the same intra-byte position they will occupy in the
// stream. Bits in the stream outside the range are preserved.
func WriteUnshifted(rw io.ReadWriteSeeker, a Address, n int, b []byte) error {
	total, err := span(rw, a, n, b)
	if err != nil || total == 0 {
		return err
	}

	tmp := make([]byte, total)
	copy(tmp, b[:total])

	trail := trailing(a, n, total)
	if a.Bit != 0 || trail != 0 {
		var edge [1]byte

		// First byte
		if err := readFull(rw, edge[:]); err != nil {
			return err
		}
		if total == 1 {
			tmp[0] = mergeByte(edge[0], tmp[0], uint(a.Bit), bitsPerByte-trail)
		} else {
			tmp[0] = mergeByte(edge[0], tmp[0], uint(a.Bit), bitsPerByte)

			// Last byte
			if trail != 0 {
				if _, err := rw.Seek(int64(a.Byte)+int64(total-1), io.SeekStart); err != nil {
					return err
				}
				if err := readFull(rw, edge[:]); err != nil {
					return err
				}
				tmp[total-1] = mergeByte(edge[0], tmp[total-1], 0, bitsPerByte-trail)
			}
		}

		if _, err := rw.Seek(int64(a.Byte), io.SeekStart); err != nil {
			return err
		}
	}

	_, err = rw.Write(tmp)
	return err
}

// WriteShifted writes n left-packed bits from b to the stream at a,
// preserving the surrounding bits in the stream. b is not modified.
func WriteShifted(rw io.ReadWriteSeeker, a Address, n int, b []byte) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", ErrInvalidArgument, n)
	}
	if a.Bit >= bitsPerByte {
		return fmt.Errorf("%w: bit offset %d", ErrInvalidArgument, a.Bit)
	}
	if len(b) < bytesFor(n) {
		return fmt.Errorf("%w: %d byte buffer cannot hold %d bits", ErrInvalidArgument, len(b), n)
	}

	tmp := make([]byte, bytesFor(int(a.Bit)+n))
	copy(tmp, b[:bytesFor(n)])
	ShiftRight(tmp, int(a.Bit))

	return WriteUnshifted(rw, a, n, tmp)
}
