package bitstream

import "fmt"

// Address locates a single bit within a stream. Bit is always in [0, 7]
// with 0 being the most significant bit of the byte at offset Byte.
type Address struct {
	Byte uint64
	Bit  uint8
}

// NewAddress returns a normalized Address, carrying any bit offset of 8 or
// more into the byte offset.
func NewAddress(byteOffset uint64, bitOffset uint) Address {
	return Address{
		Byte: byteOffset + uint64(bitOffset/bitsPerByte),
		Bit:  uint8(bitOffset % bitsPerByte),
	}
}

// AddressFromBits returns the Address of the nth bit of a stream.
func AddressFromBits(n uint64) Address {
	return Address{
		Byte: n / bitsPerByte,
		Bit:  uint8(n % bitsPerByte),
	}
}

// Bits returns the absolute bit position of a.
func (a Address) Bits() uint64 {
	return a.Byte*bitsPerByte + uint64(a.Bit)
}

// Add returns the Address n bits after a.
func (a Address) Add(n uint64) Address {
	return AddressFromBits(a.Bits() + n)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%X.%d", a.Byte, a.Bit)
}
