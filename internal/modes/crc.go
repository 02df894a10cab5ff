package modes

// Parity table for Mode S messages. Element j is the parity pattern
// contributed by a '1' bit in position j of a 112-bit message, counted
// from the first bit of data after the preamble.
//
// For 112 bit messages the whole table is used. For 56 bit messages
// only the last 56 elements are used (offset 56). The last 24 elements
// are zero since the checksum field itself must not affect the
// computation.
var crcTable = [112]uint32{
	0x3935ea, 0x1c9af5, 0xf1b77e, 0x78dbbf, 0xc397db, 0x9e31e9, 0xb0e2f0, 0x587178,
	0x2c38bc, 0x161c5e, 0x0b0e2f, 0xfa7d13, 0x82c48d, 0xbe9842, 0x5f4c21, 0xd05c14,
	0x682e0a, 0x341705, 0xe5f186, 0x72f8c3, 0xc68665, 0x9cb936, 0x4e5c9b, 0xd8d449,
	0x939020, 0x49c810, 0x24e408, 0x127204, 0x093902, 0x049c81, 0xfdb444, 0x7eda22,
	0x3f6d11, 0xe04c8c, 0x702646, 0x381323, 0xe3f395, 0x8e03ce, 0x4701e7, 0xdc7af7,
	0x91c77f, 0xb719bb, 0xa476d9, 0xadc168, 0x56e0b4, 0x2b705a, 0x15b82d, 0xf52612,
	0x7a9309, 0xc2b380, 0x6159c0, 0x30ace0, 0x185670, 0x0c2b38, 0x06159c, 0x030ace,
	0x018567, 0xff38b7, 0x80665f, 0xbfc92b, 0xa01e91, 0xaff54c, 0x57faa6, 0x2bfd53,
	0xea04ad, 0x8af852, 0x457c29, 0xdd4410, 0x6ea208, 0x375104, 0x1ba882, 0x0dd441,
	0xf91024, 0x7c8812, 0x3e4409, 0xe0d800, 0x706c00, 0x383600, 0x1c1b00, 0x0e0d80,
	0x0706c0, 0x038360, 0x01c1b0, 0x00e0d8, 0x00706c, 0x003836, 0x001c1b, 0xfff409,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
}

// checksum computes the Mode S CRC-24 over msg, which must be exactly
// 7 or 14 bytes. The trailing 3 bytes are included in the bit scan but
// contribute zero via the table's tail, matching the reference
// algorithm.
func checksum(msg []byte) uint32 {
	bits := len(msg) * 8
	offset := 0
	if bits == MessageBitsShort {
		offset = MessageBitsLong - MessageBitsShort
	}

	var crc uint32
	for j := 0; j < bits; j++ {
		byteIdx := j / 8
		bitmask := byte(1) << (7 - uint(j%8))
		if msg[byteIdx]&bitmask != 0 {
			crc ^= crcTable[j+offset]
		}
	}
	return crc
}

// trailingCRC reads the last 3 bytes of msg as a big-endian 24 bit value.
func trailingCRC(msg []byte) uint32 {
	n := len(msg)
	return uint32(msg[n-3])<<16 | uint32(msg[n-2])<<8 | uint32(msg[n-1])
}

// fixSingleBitError tries flipping each bit of msg in turn; on the
// first flip whose recomputed CRC matches the trailing field, msg is
// mutated in place and the flipped bit index returned. Returns -1 and
// leaves msg untouched if no single bit repair exists.
func fixSingleBitError(msg []byte) int {
	bits := len(msg) * 8
	aux := make([]byte, len(msg))

	for j := 0; j < bits; j++ {
		copy(aux, msg)
		aux[j/8] ^= 1 << (7 - uint(j%8))

		if trailingCRC(aux) == checksum(aux) {
			copy(msg, aux)
			return j
		}
	}
	return -1
}
