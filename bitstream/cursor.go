package bitstream

import "fmt"

// MaxBits is the widest group ReadBits and WriteBits will handle.
const MaxBits = 32

// Cursor is a seekable bit position over a fixed byte buffer. Only the
// first Len bits of the buffer are considered valid; any read or write
// touching a bit beyond that fails with ErrOutOfRange.
type Cursor struct {
	buf      []byte
	position int
	length   int
}

func newCursor(b []byte, totalBits int) (*Cursor, error) {
	if totalBits < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, totalBits)
	}
	if len(b) < bytesFor(totalBits) {
		return nil, fmt.Errorf("%w: %d byte buffer cannot hold %d bits", ErrInvalidArgument, len(b), totalBits)
	}
	return &Cursor{
		buf:    b,
		length: totalBits,
	}, nil
}

// OpenRead returns a Cursor for reading the first totalBits bits of b.
func OpenRead(b []byte, totalBits int) (*Cursor, error) {
	return newCursor(b, totalBits)
}

// OpenWrite returns a Cursor for writing the first totalBits bits of b. If
// b is nil a zeroed buffer large enough for totalBits is allocated. Writes
// merge into the existing contents of b.
func OpenWrite(b []byte, totalBits int) (*Cursor, error) {
	if b == nil && totalBits >= 0 {
		b = make([]byte, bytesFor(totalBits))
	}
	return newCursor(b, totalBits)
}

// Bytes returns the underlying buffer.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Len returns the number of valid bits.
func (c *Cursor) Len() int {
	return c.length
}

// Position returns the current bit position.
func (c *Cursor) Position() int {
	return c.position
}

// Seek sets the current bit position. Any position from 0 up to and
// including Len is accepted.
func (c *Cursor) Seek(position int) error {
	if position < 0 || position > c.length {
		return fmt.Errorf("%w: seek to bit %d of %d", ErrOutOfRange, position, c.length)
	}
	c.position = position
	return nil
}

func checkWidth(n int) {
	if n < 0 || n > MaxBits {
		panic(fmt.Errorf("%w: bit count %d (must be in [0..%d])", ErrInvalidArgument, n, MaxBits))
	}
}

func (c *Cursor) available(n int) error {
	if c.position+n > c.length {
		return fmt.Errorf("%w: %d bits at bit %d of %d", ErrOutOfRange, n, c.position, c.length)
	}
	return nil
}

// read returns the next n bits, n <= 64, without any checks.
func (c *Cursor) read(n int) uint64 {
	var v uint64
	for n > 0 {
		offset := c.position & 7
		k := bitsPerByte - offset
		if k > n {
			k = n
		}
		b := c.buf[c.position>>3] >> uint(bitsPerByte-offset-k) & byte(1<<uint(k)-1)
		v = v<<uint(k) | uint64(b)
		c.position += k
		n -= k
	}
	return v
}

// write stores the low n bits of v, n <= 64, leaving every other bit of
// the buffer untouched.
func (c *Cursor) write(v uint64, n int) {
	for n > 0 {
		offset := c.position & 7
		k := bitsPerByte - offset
		if k > n {
			k = n
		}
		shift := uint(bitsPerByte - offset - k)
		mask := byte(1<<uint(k)-1) << shift
		chunk := byte(v>>uint(n-k)) << shift
		i := c.position >> 3
		c.buf[i] = c.buf[i]&^mask | chunk&mask
		c.position += k
		n -= k
	}
}

// ReadBit reads a single bit and advances the position by one.
func (c *Cursor) ReadBit() (byte, error) {
	if err := c.available(1); err != nil {
		return 0, err
	}
	return byte(c.read(1)), nil
}

// ReadByte reads eight bits, which need not be byte aligned, and advances
// the position by eight.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.available(bitsPerByte); err != nil {
		return 0, err
	}
	return byte(c.read(bitsPerByte)), nil
}

// ReadBits reads n bits MSB-first into the low bits of the result and
// advances the position by n. It panics if n is outside [0, MaxBits].
func (c *Cursor) ReadBits(n int) (uint32, error) {
	checkWidth(n)
	if err := c.available(n); err != nil {
		return 0, err
	}
	return uint32(c.read(n)), nil
}

// WriteBit writes the least significant bit of v and advances the position
// by one.
func (c *Cursor) WriteBit(v byte) error {
	if err := c.available(1); err != nil {
		return err
	}
	c.write(uint64(v), 1)
	return nil
}

// WriteByte writes v as eight bits and advances the position by eight.
func (c *Cursor) WriteByte(v byte) error {
	if err := c.available(bitsPerByte); err != nil {
		return err
	}
	c.write(uint64(v), bitsPerByte)
	return nil
}

// WriteBits writes the low n bits of v MSB-first and advances the position
// by n. It panics if n is outside [0, MaxBits].
func (c *Cursor) WriteBits(v uint32, n int) error {
	checkWidth(n)
	if err := c.available(n); err != nil {
		return err
	}
	c.write(uint64(v), n)
	return nil
}
