/*
NAME
  pmt_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import "testing"

// standardPmtSection mirrors the reference implementation's
// StandardPmtBytes: one video (H.264) elementary stream, no descriptors.
var standardPmtSection = []byte{
	0x02, 0xb0, 0x12,
	0x00, 0x01,
	0xc1,
	0x00, 0x00,
	0xe1, 0x00,
	0xf0, 0x00,
	0x1b, 0xe1, 0x00, 0xf0, 0x00,
	0x15, 0xbd, 0x4d, 0x56,
}

func TestParsePMT(t *testing.T) {
	payload := make([]byte, 0, len(standardPmtSection)+1)
	payload = append(payload, 0x00)
	payload = append(payload, standardPmtSection...)

	streams, err := ParsePMT(payload, true)
	if err != nil {
		t.Fatalf("ParsePMT returned error: %v", err)
	}
	if len(streams) != 1 {
		t.Fatalf("len(streams) = %d, want 1", len(streams))
	}
	if streams[0].StreamType != StreamTypeH264 {
		t.Errorf("StreamType = %#x, want %#x", streams[0].StreamType, StreamTypeH264)
	}
	if streams[0].Pid != 0x100 {
		t.Errorf("Pid = %#x, want 0x100", streams[0].Pid)
	}
	if !IsVideoStreamType(streams[0].StreamType) {
		t.Error("expected H.264 to classify as video")
	}
}

func TestIsAudioStreamType(t *testing.T) {
	for _, st := range []uint8{StreamTypeMPEG1Audio, StreamTypeMPEG2Audio, StreamTypeAAC, StreamTypeAC3} {
		if !IsAudioStreamType(st) {
			t.Errorf("stream type %#x should classify as audio", st)
		}
	}
	if IsAudioStreamType(StreamTypeH264) {
		t.Error("H.264 should not classify as audio")
	}
}
