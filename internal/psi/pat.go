/*
NAME
  pat.go

DESCRIPTION
  pat.go implements parsing of a Program Association Table section and
  construction of a minimized, single-program, re-stamped PAT packet.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package psi implements parsing and re-stamping of MPEG-TS Program
// Specific Information: the Program Association Table and Program Map
// Table.
package psi

import "github.com/pkg/errors"

const (
	PacketSize = 188
	HeadSize   = 4

	patRecordSize = 4 // program_number (2) + pmt_pid (2)
	patSectionLen = 5 + patRecordSize + 4
)

// PATProgram is one (program_number, pmt_pid) record from a PAT section.
type PATProgram struct {
	Program uint16
	PmtPid  uint16
}

var errShortPAT = errors.New("pat section too short")

// ParsePAT parses the PAT section carried in a TS packet payload. pusi
// indicates whether the payload begins with a pointer_field, per the TS
// PSI framing rules.
func ParsePAT(payload []byte, pusi bool) (transportStreamID uint16, programs []PATProgram, err error) {
	b := payload
	if pusi {
		if len(b) < 1 {
			return 0, nil, errors.Wrap(errShortPAT, "missing pointer field")
		}
		ptr := int(b[0])
		b = b[1+ptr:]
	}
	if len(b) < 8 {
		return 0, nil, errors.Wrap(errShortPAT, "missing header")
	}

	sectionLength := int(b[1]&0x0f)<<8 | int(b[2])
	transportStreamID = uint16(b[3])<<8 | uint16(b[4])

	// section_length counts bytes from byte 3 (after table_id/flags) to the
	// end of the section, including the trailing CRC.
	end := 3 + sectionLength
	if end > len(b) {
		return 0, nil, errors.Wrap(errShortPAT, "section length exceeds payload")
	}

	records := b[8 : end-4]
	if len(records)%patRecordSize != 0 {
		return 0, nil, errors.Wrap(errShortPAT, "ragged program record table")
	}
	for i := 0; i+patRecordSize <= len(records); i += patRecordSize {
		programs = append(programs, PATProgram{
			Program: uint16(records[i])<<8 | uint16(records[i+1]),
			PmtPid:  uint16(records[i+2]&0x1f)<<8 | uint16(records[i+3]),
		})
	}
	return transportStreamID, programs, nil
}

// RewritePAT builds a 188-byte TS packet carrying a minimized, single
// program PAT section: table_id=0, version 0, current_next=1, one
// (program, pmtPid) record, and a valid MPEG-2 CRC32.
//
// The section is placed at the tail of the packet, preceded by 0xFF
// stuffing, so that the CRC lands at a deterministic offset from the end
// of the packet regardless of transport_stream_id or PID widths. The
// pointer_field is set to the stuffing length so a decoder lands on
// table_id. This mirrors the layout produced by the original capture tool.
func RewritePAT(cc uint8, transportStreamID uint16, program, pmtPid uint16) []byte {
	section := make([]byte, 0, patSectionLen)
	section = append(section,
		0x00,                                          // table_id: program_association_section
		0xb0|byte(patSectionLen>>8),                    // section_syntax_indicator:1|'0':1|reserved:2|section_length hi
		byte(patSectionLen),                            // section_length lo
		byte(transportStreamID>>8), byte(transportStreamID),
		0xc1, // reserved:2|version_number:5|current_next_indicator:1 -> version 0, current
		0x00, // section_number
		0x00, // last_section_number
		byte(program>>8), byte(program),
		0xe0|byte(pmtPid>>8), byte(pmtPid), // reserved:3|pmt_pid
	)
	section = AddCRC(section)

	pkt := make([]byte, PacketSize)
	pkt[0] = 0x47
	pkt[1] = 0x40 // PUSI=1, PID hi = 0
	pkt[2] = 0x00 // PID lo = 0
	pkt[3] = 0x10 | (cc & 0xf) // payload only, continuity counter

	stuffLen := PacketSize - HeadSize - 1 - len(section)
	pkt[HeadSize] = byte(stuffLen)
	for i := 0; i < stuffLen; i++ {
		pkt[HeadSize+1+i] = 0xff
	}
	copy(pkt[HeadSize+1+stuffLen:], section)
	return pkt
}
