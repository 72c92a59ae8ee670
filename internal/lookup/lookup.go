/*
NAME
  lookup.go

DESCRIPTION
  lookup.go implements the bidirectional program/PID registry used to
  resolve incoming packets to a program once PAT and PMT have been parsed.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package lookup implements the program/PID lookup table shared between
// the PSI resolver and the segmenter.
package lookup

// noPID marks a PID role that has not yet been learned.
const noPID = -1

// entry holds everything the table knows about one seeded program.
type entry struct {
	pmtPid   int32
	videoPid int32
	audioPid int32
	pat      []byte // cached rewritten PAT packet, 188 bytes
	pmt      []byte // cached verbatim PMT packet, 188 bytes
}

// Table is the program/PID lookup registry described by the PSI resolver
// and segmenter designs. It is written exclusively by the PSI resolver
// during the first PAT/PMT cycle, then read exclusively by the segmenter;
// both phases run on the same ingestion goroutine, so no locking is used.
type Table struct {
	programs  map[uint16]*entry
	byPmtPid  map[uint16]uint16
	byVideo   map[uint16]uint16
	byAudio   map[uint16]uint16
}

// New returns a Table seeded with a single admitted program. Only this
// program's PAT/PMT records will be accepted by the resolver.
func New(program uint16) *Table {
	t := &Table{
		programs: map[uint16]*entry{
			program: {pmtPid: noPID, videoPid: noPID, audioPid: noPID},
		},
		byPmtPid: make(map[uint16]uint16),
		byVideo:  make(map[uint16]uint16),
		byAudio:  make(map[uint16]uint16),
	}
	return t
}

// IsSeeded reports whether program is one the table was seeded with.
func (t *Table) IsSeeded(program uint16) bool {
	_, ok := t.programs[program]
	return ok
}

// SetPmtPid records the PMT PID for an already-seeded program. It is a
// no-op if the program is unseeded or the PMT PID was already set.
func (t *Table) SetPmtPid(program uint16, pid uint16) {
	e, ok := t.programs[program]
	if !ok || e.pmtPid != noPID {
		return
	}
	e.pmtPid = int32(pid)
	t.byPmtPid[pid] = program
}

// SetVideoPid records the video elementary PID for program, once.
func (t *Table) SetVideoPid(program uint16, pid uint16) {
	e, ok := t.programs[program]
	if !ok || e.videoPid != noPID {
		return
	}
	e.videoPid = int32(pid)
	t.byVideo[pid] = program
}

// SetAudioPid records the audio elementary PID for program, once.
func (t *Table) SetAudioPid(program uint16, pid uint16) {
	e, ok := t.programs[program]
	if !ok || e.audioPid != noPID {
		return
	}
	e.audioPid = int32(pid)
	t.byAudio[pid] = program
}

// StorePAT caches the rewritten PAT packet for program.
func (t *Table) StorePAT(program uint16, packet []byte) {
	if e, ok := t.programs[program]; ok {
		e.pat = packet
	}
}

// StorePMT caches the verbatim PMT packet for program.
func (t *Table) StorePMT(program uint16, packet []byte) {
	if e, ok := t.programs[program]; ok {
		e.pmt = packet
	}
}

// PAT returns the cached rewritten PAT packet for program, or nil if not
// yet resolved.
func (t *Table) PAT(program uint16) []byte {
	if e, ok := t.programs[program]; ok {
		return e.pat
	}
	return nil
}

// PMT returns the cached verbatim PMT packet for program, or nil if not
// yet resolved.
func (t *Table) PMT(program uint16) []byte {
	if e, ok := t.programs[program]; ok {
		return e.pmt
	}
	return nil
}

// ProgramOfPMT returns the program owning pmtPid, and whether it was found.
func (t *Table) ProgramOfPMT(pid uint16) (uint16, bool) {
	p, ok := t.byPmtPid[pid]
	return p, ok
}

// ProgramOfVideo returns the program owning video PID pid, and whether it
// was found.
func (t *Table) ProgramOfVideo(pid uint16) (uint16, bool) {
	p, ok := t.byVideo[pid]
	return p, ok
}

// ProgramOfAudio returns the program owning audio PID pid, and whether it
// was found.
func (t *Table) ProgramOfAudio(pid uint16) (uint16, bool) {
	p, ok := t.byAudio[pid]
	return p, ok
}

// IsValidVideoPid reports whether pid is a learned video PID.
func (t *Table) IsValidVideoPid(pid uint16) bool {
	_, ok := t.byVideo[pid]
	return ok
}

// IsValidAudioPid reports whether pid is a learned audio PID.
func (t *Table) IsValidAudioPid(pid uint16) bool {
	_, ok := t.byAudio[pid]
	return ok
}

// PmtPid returns the learned PMT PID for program, and whether it has been
// set yet.
func (t *Table) PmtPid(program uint16) (uint16, bool) {
	e, ok := t.programs[program]
	if !ok || e.pmtPid == noPID {
		return 0, false
	}
	return uint16(e.pmtPid), true
}

// Resolved reports whether program has learned a PMT PID and video PID,
// and has cached both PAT and PMT packets. An audio PID is not required:
// a program is not guaranteed to carry an audio elementary stream.
func (t *Table) Resolved(program uint16) bool {
	e, ok := t.programs[program]
	if !ok {
		return false
	}
	return e.pmtPid != noPID && e.videoPid != noPID && e.pat != nil && e.pmt != nil
}
