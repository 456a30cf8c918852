package token

import (
	"encoding/binary"
	"fmt"
)

// CIP-67 prefixes are 0 | label(16 bits) | crc8(label) | 0, read as nibbles.

// LabelPrefix returns the hex prefix for label.
func LabelPrefix(label uint16) string {
	return fmt.Sprintf("%08x", labelBits(label))
}

func labelBits(label uint16) uint32 {
	var raw [2]byte
	binary.BigEndian.PutUint16(raw[:], label)
	return uint32(label)<<12 | uint32(crc8(raw[:]))<<4
}

// ParseLabel decodes a 4-byte prefix, verifying its zero nibbles and checksum.
func ParseLabel(prefix []byte) (int, bool) {
	if len(prefix) != PrefixSize {
		return 0, false
	}
	v := binary.BigEndian.Uint32(prefix)
	if v>>28 != 0 || v&0x0f != 0 {
		return 0, false
	}
	label := uint16(v >> 12)
	if labelBits(label) != v {
		return 0, false
	}
	return int(label), true
}

// crc8 is CRC-8 with polynomial 0x07, zero init, no reflection.
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
