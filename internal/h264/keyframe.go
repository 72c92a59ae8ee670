/*
NAME
  keyframe.go

DESCRIPTION
  keyframe.go scans a PES payload carried in a single TS packet for H.264
  NAL unit types, to decide whether the packet should trigger a segment
  flush.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264 implements the key-frame detector used by the segmenter.
package h264

// NAL unit types, per ITU-T H.264 Table 7-1 (relevant subset).
const (
	NonIDRSlice = 1
	IDRSlice    = 5
	SPS         = 7
	PPS         = 8
)

// PESHeaderLengthOffset is the offset, from the start of a PES payload, of
// the PES_header_data_length byte.
const PESHeaderLengthOffset = 8

// IsKeyFrame scans a TS packet's payload for SPS, PPS and an IDR (or
// non-IDR, see below) slice NAL unit, and reports whether all were found.
//
// Two quirks of the source this algorithm was ported from are kept:
//   - NonIDRSlice is accepted as an alternative to IDRSlice, so a packet
//     with SPS, PPS and a non-IDR slice also counts as a key frame.
//   - The start-code word is computed with its first byte masked to the
//     low 5 bits before comparison against 0x1, so the match is only a true
//     0x00000001 start code when that byte is at most 0x1f.
//
// Neither is corrected here, since correcting them would change where
// segments are cut.
func IsKeyFrame(payload []byte) bool {
	es := elementaryStreamBytes(payload)
	if es == nil {
		return false
	}

	var sawSPS, sawPPS, sawSlice bool
	for i := 0; i+4 < len(es); i++ {
		w := uint32(es[i]&0x1f)<<24 | uint32(es[i+1])<<16 | uint32(es[i+2])<<8 | uint32(es[i+3])
		if w != 0x1 {
			continue
		}
		switch es[i+4] & 0x1f {
		case SPS:
			sawSPS = true
		case PPS:
			sawPPS = true
		case IDRSlice, NonIDRSlice:
			sawSlice = true
		}
	}
	return sawSPS && sawPPS && sawSlice
}

// elementaryStreamBytes skips a PES header within a TS packet payload to
// reach the elementary stream bytes, per the PES_header_data_length field.
// Returns nil if the payload is too short to contain a full PES header.
func elementaryStreamBytes(payload []byte) []byte {
	if len(payload) <= PESHeaderLengthOffset {
		return nil
	}
	headerDataLen := int(payload[PESHeaderLengthOffset])
	start := 9 + headerDataLen
	if start >= len(payload) {
		return nil
	}
	return payload[start:]
}
