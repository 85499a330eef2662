package lib

// Bit8 alias for uint8, provides bit twiddling methods on 8-bit number.
type Bit8 uint8

// Ones count set bits.
func (b Bit8) Ones() int8 {
	b = b - ((b >> 1) & 0x55)
	b = (b & 0x33) + ((b >> 2) & 0x33)
	return int8((b + (b >> 4)) & 0x0f)
}

// Zeros count cleared bits.
func (b Bit8) Zeros() int8 {
	return 8 - b.Ones()
}

// Findfirstset return the position of the least significant set bit,
// -1 when no bit is set.
func (b Bit8) Findfirstset() int8 {
	for i := uint8(0); i < 8; i++ {
		if (b & (1 << i)) != 0 {
			return int8(i)
		}
	}
	return -1
}

// Setbit set bit at nth position.
func (b Bit8) Setbit(n uint8) uint8 {
	return uint8(b) | (1 << n)
}

// Clearbit clear bit at nth position.
func (b Bit8) Clearbit(n uint8) uint8 {
	return uint8(b) &^ (1 << n)
}
