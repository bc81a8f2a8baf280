/*
Package bitstream implements bit-granular access to tile graphics data.

Bits are numbered MSB-first: bit 0 of a buffer is the most significant bit of
its first byte. A Cursor reads and writes single bits, bytes and bit groups at
any position inside an in-memory buffer, while the Read/Write functions
extract or merge an arbitrary bit range at an Address inside a backing
stream, either left-packed ("shifted") or at its original intra-byte
position ("unshifted").

Neither a Cursor nor the stream functions are safe for concurrent use; every
stream operation seeks explicitly before doing any I/O so callers sharing a
stream must serialize access themselves.
*/
package bitstream

import "errors"

var (
	// ErrInvalidArgument is returned, or used to panic, when a caller
	// passes an argument outside of its documented range.
	ErrInvalidArgument = errors.New("bitstream: invalid argument")

	// ErrOutOfRange is returned when a Cursor operation would move
	// beyond the declared number of valid bits.
	ErrOutOfRange = errors.New("bitstream: position out of range")

	// ErrNoData is returned when an address range lies beyond the end of
	// the backing stream. It is not a hard failure; callers treat the
	// element as blank.
	ErrNoData = errors.New("bitstream: address range exceeds stream")
)

const bitsPerByte = 8

// bytesFor returns the number of bytes needed to hold n bits.
func bytesFor(n int) int {
	return (n + bitsPerByte - 1) / bitsPerByte
}
