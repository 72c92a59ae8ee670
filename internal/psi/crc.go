/*
NAME
  crc.go

DESCRIPTION
  crc.go implements the MPEG-2 CRC32 variant used to checksum PSI sections.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import (
	"encoding/binary"
	"hash/crc32"
	"math/bits"
)

// mpeg2Table is a non-reflected (MSB-first) table for the CRC32 polynomial
// used by MPEG-2 PSI sections (0x04C11DB7). The polynomial is obtained by
// bit-reversing the stdlib's reflected IEEE constant, so the byte-at-a-time
// update below can shift MSB-first.
var mpeg2Table = makeTable(bits.Reverse32(crc32.IEEE))

// AddCRC appends 4 zero bytes to b and overwrites them with the MPEG-2
// CRC32 of b, returning the extended slice. The checksum covers all of b.
func AddCRC(b []byte) []byte {
	t := make([]byte, len(b)+4)
	copy(t, b)
	UpdateCrc(t)
	return t
}

// UpdateCrc computes the MPEG-2 CRC32 over b[:len(b)-4] and writes it,
// big-endian, into the last 4 bytes of b.
func UpdateCrc(b []byte) {
	sum := update(0xffffffff, mpeg2Table, b[:len(b)-4])
	binary.BigEndian.PutUint32(b[len(b)-4:], sum)
}

func makeTable(poly uint32) *crc32.Table {
	var t crc32.Table
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

func update(crc uint32, tab *crc32.Table, p []byte) uint32 {
	for _, v := range p {
		crc = tab[byte(crc>>24)^v] ^ (crc << 8)
	}
	return crc
}
