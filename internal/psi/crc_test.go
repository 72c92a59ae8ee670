/*
NAME
  crc_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import "testing"

// standardPatSection is the section-only portion (table_id onward, no
// pointer_field) of StandardPatBytes from the reference implementation,
// with its known-correct trailing CRC.
var standardPatSection = []byte{
	0x00, 0xb0, 0x0d,
	0x00, 0x01,
	0xc1,
	0x00, 0x00,
	0x00, 0x01,
	0xf0, 0x00,
	0x2a, 0xb1, 0x04, 0xb2,
}

func TestUpdateCrcMatchesKnownValue(t *testing.T) {
	b := make([]byte, len(standardPatSection))
	copy(b, standardPatSection)
	for i := len(b) - 4; i < len(b); i++ {
		b[i] = 0
	}
	UpdateCrc(b)

	want := standardPatSection[len(standardPatSection)-4:]
	got := b[len(b)-4:]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("crc mismatch: got % x, want % x", got, want)
		}
	}
}

func TestAddCRCRoundTrip(t *testing.T) {
	section := standardPatSection[:len(standardPatSection)-4]
	out := AddCRC(section)
	if len(out) != len(standardPatSection) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(standardPatSection))
	}
	for i, v := range standardPatSection {
		if out[i] != v {
			t.Errorf("out[%d] = %#x, want %#x", i, out[i], v)
		}
	}
}
