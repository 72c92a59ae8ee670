/*
NAME
  resolver.go

DESCRIPTION
  resolver.go implements the PSI resolver: it parses the first PAT for the
  configured program, then that program's PMT, and populates the lookup
  table with a rewritten PAT packet, the verbatim PMT packet, and the
  learned PMT/video/audio PIDs.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package resolver implements the PSI resolver component of the ingestion
// pipeline.
package resolver

import (
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscut/internal/lookup"
	"github.com/ausocean/tscut/internal/mts"
	"github.com/ausocean/tscut/internal/psi"
)

const pkg = "resolver: "

// Resolver parses PAT and PMT sections, once each, for a single seeded
// program and records what it learns in the lookup table.
type Resolver struct {
	table   *lookup.Table
	program uint16
	log     logging.Logger

	patSeen bool
	pmtSeen bool
}

// New returns a Resolver that will admit only program's PAT/PMT records
// into table.
func New(table *lookup.Table, program uint16, log logging.Logger) *Resolver {
	return &Resolver{table: table, program: program, log: log}
}

// Resolved reports whether the configured program's PAT and PMT have both
// been cached and a video PID has been learned from the PMT.
func (r *Resolver) Resolved() bool { return r.table.Resolved(r.program) }

// HandlePAT processes a packet on PID 0. PATs are parsed until one lists
// the configured program; once it has, subsequent ones are ignored.
func (r *Resolver) HandlePAT(pkt *mts.Packet) {
	if r.patSeen {
		return
	}
	payload := pkt.Payload()
	if payload == nil {
		return
	}
	tsid, programs, err := psi.ParsePAT(payload, pkt.PUSI)
	if err != nil {
		r.log.Debug(pkg+"could not parse pat", "error", err.Error())
		return
	}
	for _, p := range programs {
		if p.Program != r.program {
			continue
		}
		r.table.SetPmtPid(p.Program, p.PmtPid)
		rewritten := psi.RewritePAT(pkt.CC, tsid, p.Program, p.PmtPid)
		r.table.StorePAT(p.Program, rewritten)
		r.patSeen = true
		r.log.Info(pkg+"resolved pat", "program", p.Program, "pmt_pid", p.PmtPid)
		return
	}
}

// HandlePMT processes a packet on the learned PMT PID for the configured
// program. PMTs are parsed until one parses successfully; once it has,
// subsequent ones are ignored. Each PMT packet handled before then replaces
// the cached raw PMT packet.
func (r *Resolver) HandlePMT(pkt *mts.Packet) {
	if r.pmtSeen {
		return
	}
	pmtPid, ok := r.table.PmtPid(r.program)
	if !ok || pkt.Pid != int16(pmtPid) {
		return
	}

	// Cache the raw packet verbatim; it is re-emitted unchanged as the
	// second packet of every segment.
	raw := make([]byte, len(pkt.Bytes()))
	copy(raw, pkt.Bytes())
	r.table.StorePMT(r.program, raw)

	payload := pkt.Payload()
	if payload == nil {
		return
	}
	streams, err := psi.ParsePMT(payload, pkt.PUSI)
	if err != nil {
		r.log.Debug(pkg+"could not parse pmt", "error", err.Error())
		return
	}

	for _, s := range streams {
		switch {
		case psi.IsVideoStreamType(s.StreamType):
			r.table.SetVideoPid(r.program, s.Pid)
		case psi.IsAudioStreamType(s.StreamType):
			r.table.SetAudioPid(r.program, s.Pid)
		}
	}
	r.pmtSeen = true
	r.log.Info(pkg+"resolved pmt", "program", r.program)
}
