/*
NAME
  segmenter.go

DESCRIPTION
  segmenter.go implements the segmenter: it classifies video/audio packets
  for the resolved program, accumulates them into a segment buffer, and
  flushes a completed segment to the writer on an IDR boundary once the
  buffer has reached its target fill.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package segmenter implements the key-frame segmenter component of the
// ingestion pipeline.
package segmenter

import (
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscut/internal/h264"
	"github.com/ausocean/tscut/internal/lookup"
	"github.com/ausocean/tscut/internal/mts"
)

const pkg = "segmenter: "

// Segment is a completed, independently owned segment buffer handed off
// to the writer.
type Segment struct {
	Bytes     []byte
	Timestamp int64 // unix seconds at which the buffer began filling
	Sequence  uint64
}

// Segmenter accumulates packets for a single resolved program into a
// segment buffer and flushes it on IDR boundaries once the target fill is
// reached.
type Segmenter struct {
	table         *lookup.Table
	program       uint16
	maxBufferSize int
	log           logging.Logger

	buf       []byte
	fill      int
	startedAt int64
	sequence  uint64

	now func() time.Time // overridable for tests
}

// New returns a Segmenter for program, flushing once the buffer reaches
// maxBufferSize bytes at an IDR boundary. The buffer is preallocated to
// twice maxBufferSize, since a segment may grow past the threshold before
// the next IDR is seen (§8 invariant 5).
func New(table *lookup.Table, program uint16, maxBufferSize int, log logging.Logger) *Segmenter {
	return &Segmenter{
		table:         table,
		program:       program,
		maxBufferSize: maxBufferSize,
		log:           log,
		buf:           make([]byte, 0, 2*maxBufferSize),
		now:           time.Now,
	}
}

// Handle processes one packet already known to be on the resolved
// program's video or audio PID, returning a completed Segment if this
// packet triggered a flush.
func (s *Segmenter) Handle(pkt *mts.Packet, isVideo bool) *Segment {
	if len(s.buf) == 0 {
		s.beginBuffer()
	}

	if !isVideo {
		s.append(pkt.Bytes())
		return nil
	}

	key := false
	if pkt.PUSI {
		if payload := pkt.Payload(); payload != nil {
			key = h264.IsKeyFrame(payload)
		}
	}

	if key && s.fill >= s.maxBufferSize {
		seg := s.flush()
		s.beginBuffer()
		s.append(pkt.Bytes())
		return seg
	}

	s.append(pkt.Bytes())
	return nil
}

// beginBuffer resets the buffer to empty and prepends the cached PAT and
// PMT packets, per the flush invariant in §3: the buffer's first packet is
// always the cached PAT immediately after a flush.
func (s *Segmenter) beginBuffer() {
	s.buf = s.buf[:0]
	s.fill = 0
	s.startedAt = s.now().Unix()

	pat := s.table.PAT(s.program)
	pmt := s.table.PMT(s.program)
	s.buf = append(s.buf, pat...)
	s.buf = append(s.buf, pmt...)
	s.fill = len(s.buf)
}

func (s *Segmenter) append(b []byte) {
	s.buf = append(s.buf, b...)
	s.fill += len(b)
}

// Fill returns the current size in bytes of the active segment buffer.
func (s *Segmenter) Fill() int { return s.fill }

// flush copies the filled buffer into an owned Segment. The ingestion path
// must never share a mutable view with the writer, per §4.3.
func (s *Segmenter) flush() *Segment {
	owned := make([]byte, len(s.buf))
	copy(owned, s.buf)
	s.sequence++
	seg := &Segment{Bytes: owned, Timestamp: s.startedAt, Sequence: s.sequence}
	s.log.Debug(pkg+"flushing segment", "sequence", seg.Sequence, "bytes", len(owned), "timestamp", seg.Timestamp)
	return seg
}
