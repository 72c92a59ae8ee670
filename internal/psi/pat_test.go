/*
NAME
  pat_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import "testing"

func TestParsePAT(t *testing.T) {
	payload := make([]byte, 0, len(standardPatSection)+1)
	payload = append(payload, 0x00) // pointer_field
	payload = append(payload, standardPatSection...)

	tsid, programs, err := ParsePAT(payload, true)
	if err != nil {
		t.Fatalf("ParsePAT returned error: %v", err)
	}
	if tsid != 1 {
		t.Errorf("tsid = %d, want 1", tsid)
	}
	if len(programs) != 1 {
		t.Fatalf("len(programs) = %d, want 1", len(programs))
	}
	if programs[0].Program != 1 || programs[0].PmtPid != 4096 {
		t.Errorf("programs[0] = %+v, want {1 4096}", programs[0])
	}
}

func TestRewritePATRoundTrips(t *testing.T) {
	pkt := RewritePAT(3, 0xabcd, 2, 0x1234)
	if len(pkt) != PacketSize {
		t.Fatalf("len(pkt) = %d, want %d", len(pkt), PacketSize)
	}
	if pkt[0] != 0x47 {
		t.Fatalf("sync byte = %#x, want 0x47", pkt[0])
	}
	pid := int(pkt[1]&0x1f)<<8 | int(pkt[2])
	if pid != 0 {
		t.Errorf("pid = %d, want 0 (pat pid)", pid)
	}
	pusi := pkt[1]&0x40 != 0
	if !pusi {
		t.Error("rewritten pat must have PUSI set")
	}

	stuffLen := int(pkt[HeadSize])
	section := pkt[HeadSize+1+stuffLen:]

	tsid, programs, err := ParsePAT(pkt[HeadSize:], true)
	if err != nil {
		t.Fatalf("re-parsing rewritten pat failed: %v", err)
	}
	if tsid != 0xabcd {
		t.Errorf("tsid = %#x, want 0xabcd", tsid)
	}
	if len(programs) != 1 {
		t.Fatalf("len(programs) = %d, want 1", len(programs))
	}
	if programs[0].Program != 2 || programs[0].PmtPid != 0x1234 {
		t.Errorf("programs[0] = %+v, want {2 0x1234}", programs[0])
	}

	// CRC must verify over the section bytes (table_id through the record).
	withoutCRC := make([]byte, len(section))
	copy(withoutCRC, section)
	recomputed := AddCRC(withoutCRC[:len(withoutCRC)-4])
	for i := range recomputed {
		if recomputed[i] != section[i] {
			t.Fatalf("crc mismatch at byte %d: got %#x want %#x", i, section[i], recomputed[i])
		}
	}
}

func TestRewritePATStuffedWithFF(t *testing.T) {
	pkt := RewritePAT(0, 1, 1, 4096)
	stuffLen := int(pkt[HeadSize])
	for i := 0; i < stuffLen; i++ {
		if pkt[HeadSize+1+i] != 0xff {
			t.Fatalf("stuffing byte %d = %#x, want 0xff", i, pkt[HeadSize+1+i])
		}
	}
}
