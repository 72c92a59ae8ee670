/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go drives the single-threaded ingestion loop: UDP receiver to
  PSI resolver to segmenter, handing completed segments off to a bounded
  writer pool.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ingest wires the receiver, resolver, segmenter and writer pool
// into the single-producer pipeline described by the ingestion design.
package ingest

import (
	"github.com/ausocean/utils/logging"
	"golang.org/x/time/rate"

	"github.com/ausocean/tscut/internal/lookup"
	"github.com/ausocean/tscut/internal/metrics"
	"github.com/ausocean/tscut/internal/mts"
	"github.com/ausocean/tscut/internal/receiver"
	"github.com/ausocean/tscut/internal/resolver"
	"github.com/ausocean/tscut/internal/segmenter"
	"github.com/ausocean/tscut/internal/writer"
)

// malformedLogLimit caps how often a malformed-packet warning can be
// logged; a bad upstream feed can produce these at line rate and would
// otherwise flood the log file.
const malformedLogLimit = rate.Limit(1) // one message per second

const pkg = "ingest: "

// Pipeline drives packet ingestion from a Receiver through the PSI
// Resolver and Segmenter, submitting completed segments to a writer Pool.
type Pipeline struct {
	recv         *receiver.Receiver
	table        *lookup.Table
	resolver     *resolver.Resolver
	seg          *segmenter.Segmenter
	writers      *writer.Pool
	outputFolder string
	program      uint16
	maxBuffer    int
	log          logging.Logger
	metrics      *metrics.Collector
	dropLimiter  *rate.Limiter
}

// New builds a Pipeline for the given program, wiring the given Receiver
// and writer Pool to a fresh lookup Table and Resolver. The Segmenter is constructed
// lazily, once the resolver has learned PAT and PMT, because it needs the
// resolved cached packets before it can begin filling a buffer.
func New(recv *receiver.Receiver, program uint16, maxBufferSize int, writers *writer.Pool, outputFolder string, log logging.Logger, m *metrics.Collector) *Pipeline {
	table := lookup.New(program)
	return &Pipeline{
		recv:         recv,
		table:        table,
		resolver:     resolver.New(table, program, log),
		writers:      writers,
		outputFolder: outputFolder,
		program:      program,
		maxBuffer:    maxBufferSize,
		log:          log,
		metrics:      m,
		dropLimiter:  rate.NewLimiter(malformedLogLimit, 5),
	}
}

// Run drives the ingestion loop until the receiver returns a fatal error.
// Per §4.1/§5, socket errors are fatal; transient per-datagram errors are
// logged and skipped.
func (p *Pipeline) Run() error {
	for {
		raw, err := p.recv.Read()
		if err != nil {
			if receiver.IsTransient(err) {
				if p.dropLimiter.Allow() {
					p.log.Debug(pkg+"skipping datagram", "error", err.Error())
				}
				continue
			}
			return err
		}

		pkt, err := mts.Parse(raw)
		if err != nil {
			if p.dropLimiter.Allow() {
				p.log.Debug(pkg+"dropping malformed packet", "error", err.Error())
			}
			if p.metrics != nil {
				p.metrics.CountPacket(metrics.ClassDropped)
			}
			continue
		}
		if pkt.TEI {
			if p.metrics != nil {
				p.metrics.CountPacket(metrics.ClassDropped)
			}
			continue
		}

		p.handle(pkt)
	}
}

func (p *Pipeline) handle(pkt *mts.Packet) {
	switch {
	case pkt.Pid == mts.PatPid:
		p.resolver.HandlePAT(pkt)
		p.countAndMaybeInit(metrics.ClassPAT)
		return
	}

	if pmtPid, ok := p.table.PmtPid(p.program); ok && pkt.Pid == int16(pmtPid) {
		p.resolver.HandlePMT(pkt)
		p.countAndMaybeInit(metrics.ClassPMT)
		return
	}

	if !p.resolver.Resolved() {
		return // logic anomaly: media before PSI resolved; drop until ready, per §7.
	}
	if p.seg == nil {
		p.seg = segmenter.New(p.table, p.program, p.maxBuffer, p.log)
	}

	if p.table.IsValidVideoPid(uint16(pkt.Pid)) {
		p.countAndMaybeInit(metrics.ClassVideo)
		seg := p.seg.Handle(pkt, true)
		p.reportBufferFill()
		if seg != nil {
			p.writers.Submit(newJob(seg, p.outputFolder))
		}
		return
	}
	if p.table.IsValidAudioPid(uint16(pkt.Pid)) {
		p.countAndMaybeInit(metrics.ClassAudio)
		p.seg.Handle(pkt, false)
		p.reportBufferFill()
		return
	}
	p.countAndMaybeInit(metrics.ClassDropped)
}

func (p *Pipeline) reportBufferFill() {
	if p.metrics != nil {
		p.metrics.SetBufferFill(p.seg.Fill())
	}
}

func (p *Pipeline) countAndMaybeInit(class string) {
	if p.metrics != nil {
		p.metrics.CountPacket(class)
	}
}

func newJob(seg *segmenter.Segment, outputFolder string) writer.Job {
	return writer.Job{Segment: seg, OutputFolder: outputFolder}
}
