/*
NAME
  packet.go

DESCRIPTION
  packet.go implements parsing of MPEG-2 Transport Stream packet headers.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mts provides parsing of MPEG-2 Transport Stream packets.
package mts

import "github.com/pkg/errors"

// Sizes and offsets fixed by the MPEG-2 Systems spec.
const (
	PacketSize = 188
	HeadSize   = 4
	SyncByte   = 0x47

	PatPid = 0
)

// Adaptation field control values (2-bit field at byte 3, bits 5-4).
const (
	AFCReserved       = 0
	AFCPayloadOnly    = 1
	AFCAdaptationOnly = 2
	AFCAdaptationPlus = 3
)

var errBadPacket = errors.New("invalid mpegts packet")

// Packet holds the parsed header fields of one 188-byte transport stream
// packet, along with the raw bytes it was parsed from.
type Packet struct {
	raw []byte

	TEI  bool  // transport_error_indicator
	PUSI bool  // payload_unit_start_indicator
	Pid  int16 // 13-bit packet identifier
	AFC  uint8 // adaptation_field_control
	CC   uint8 // continuity_counter

	afLen int // adaptation field length, valid when AFC indicates adaptation field present
}

// Parse decodes the header of a single 188-byte transport stream packet. It
// returns an error if the slice is not exactly PacketSize bytes, the sync
// byte is wrong, or the adaptation field length is inconsistent.
func Parse(b []byte) (*Packet, error) {
	if len(b) != PacketSize {
		return nil, errors.Wrap(errBadPacket, "wrong packet size")
	}
	if b[0] != SyncByte {
		return nil, errors.Wrap(errBadPacket, "bad sync byte")
	}

	p := &Packet{raw: b}
	p.TEI = b[1]&0x80 != 0
	p.PUSI = b[1]&0x40 != 0
	p.Pid = int16(b[1]&0x1f)<<8 | int16(b[2])
	p.AFC = (b[3] >> 4) & 0x3
	p.CC = b[3] & 0xf

	if p.AFC == AFCAdaptationOnly || p.AFC == AFCAdaptationPlus {
		if len(b) < HeadSize+1 {
			return nil, errors.Wrap(errBadPacket, "truncated adaptation field")
		}
		p.afLen = int(b[HeadSize])
		if HeadSize+1+p.afLen > PacketSize {
			return nil, errors.Wrap(errBadPacket, "adaptation field too long")
		}
	}
	return p, nil
}

// Bytes returns the raw bytes the packet was parsed from.
func (p *Packet) Bytes() []byte { return p.raw }

// HasPayload reports whether the packet carries a payload, per AFC.
func (p *Packet) HasPayload() bool {
	return p.AFC == AFCPayloadOnly || p.AFC == AFCAdaptationPlus
}

// Payload returns the packet's payload bytes, skipping the header and any
// adaptation field. Returns nil if the packet carries no payload.
func (p *Packet) Payload() []byte {
	if !p.HasPayload() {
		return nil
	}
	start := HeadSize
	if p.AFC == AFCAdaptationPlus {
		start += 1 + p.afLen
	}
	if start >= len(p.raw) {
		return nil
	}
	return p.raw[start:]
}
