/*
NAME
  pmt.go

DESCRIPTION
  pmt.go implements parsing of a Program Map Table section to locate
  elementary video and audio stream PIDs.

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

import "github.com/pkg/errors"

// Recognized stream types, per ISO/IEC 13818-1 Table 2-34 (relevant subset).
const (
	StreamTypeH264      = 0x1b
	StreamTypeMPEG1Audio = 0x03
	StreamTypeMPEG2Audio = 0x04
	StreamTypeAAC       = 0x0f
	StreamTypeAC3       = 0x81
)

var errShortPMT = errors.New("pmt section too short")

// ElementaryStream is one entry from a PMT's elementary stream loop.
type ElementaryStream struct {
	StreamType uint8
	Pid        uint16
}

// ParsePMT parses a PMT section carried in a TS packet payload, returning
// its elementary stream records. pusi indicates whether the payload begins
// with a pointer_field.
func ParsePMT(payload []byte, pusi bool) ([]ElementaryStream, error) {
	b := payload
	if pusi {
		if len(b) < 1 {
			return nil, errors.Wrap(errShortPMT, "missing pointer field")
		}
		ptr := int(b[0])
		b = b[1+ptr:]
	}
	if len(b) < 12 {
		return nil, errors.Wrap(errShortPMT, "missing header")
	}

	sectionLength := int(b[1]&0x0f)<<8 | int(b[2])
	programInfoLength := int(b[10]&0x0f)<<8 | int(b[11])

	end := 3 + sectionLength
	if end > len(b) {
		return nil, errors.Wrap(errShortPMT, "section length exceeds payload")
	}

	loopStart := 12 + programInfoLength
	loopEnd := end - 4 // exclude trailing CRC
	if loopStart > loopEnd || loopEnd > len(b) {
		return nil, errors.Wrap(errShortPMT, "bad program info length")
	}

	var streams []ElementaryStream
	for i := loopStart; i+5 <= loopEnd; {
		streamType := b[i]
		pid := uint16(b[i+1]&0x1f)<<8 | uint16(b[i+2])
		esInfoLength := int(b[i+3]&0x0f)<<8 | int(b[i+4])
		streams = append(streams, ElementaryStream{StreamType: streamType, Pid: pid})
		i += 5 + esInfoLength
	}
	return streams, nil
}

// IsVideoStreamType reports whether t identifies the video elementary
// stream this service segments on.
func IsVideoStreamType(t uint8) bool { return t == StreamTypeH264 }

// IsAudioStreamType reports whether t identifies a recognized audio
// elementary stream.
func IsAudioStreamType(t uint8) bool {
	switch t {
	case StreamTypeMPEG1Audio, StreamTypeMPEG2Audio, StreamTypeAAC, StreamTypeAC3:
		return true
	default:
		return false
	}
}
