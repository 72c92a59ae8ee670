/*
NAME
  writer.go

DESCRIPTION
  writer.go implements the writer: a bounded pool of workers that drain
  completed segments, write the raw bytes to disk, invoke an external
  rewrap tool, adjust ownership of the result, and optionally upload it to
  object storage.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package writer implements the writer component: it turns completed
// segment buffers into playable .ts files on disk.
package writer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscut/internal/metrics"
	"github.com/ausocean/tscut/internal/segmenter"
)

const pkg = "writer: "

// Uploader uploads a completed .ts segment to an external sink. Errors are
// logged by the caller and never affect local output, per §4.4.
type Uploader interface {
	Upload(ctx context.Context, path string, timestamp int64) error
}

// Job is one segment handed off from the segmenter to a writer worker.
type Job struct {
	Segment      *segmenter.Segment
	OutputFolder string
}

// Pool is a bounded worker pool draining a hand-off channel of writer
// jobs. A full channel blocks the caller rather than dropping segments,
// per §5's stated back-pressure policy.
type Pool struct {
	jobs         chan Job
	wg           sync.WaitGroup
	execDir      string
	convertTool  string
	serviceAcct  string
	uploader     Uploader
	log          logging.Logger
	metrics      *metrics.Collector
}

// Config configures a Pool.
type Config struct {
	Workers      int
	QueueDepth   int
	ExecDir      string
	ConvertTool  string
	ServiceAcct  string // empty disables the chown step
	Uploader     Uploader
	Log          logging.Logger
	Metrics      *metrics.Collector
}

// NewPool starts a Pool with cfg.Workers goroutines draining a channel of
// depth cfg.QueueDepth.
func NewPool(cfg Config) *Pool {
	p := &Pool{
		jobs:        make(chan Job, cfg.QueueDepth),
		execDir:     cfg.ExecDir,
		convertTool: cfg.ConvertTool,
		serviceAcct: cfg.ServiceAcct,
		uploader:    cfg.Uploader,
		log:         cfg.Log,
		metrics:     cfg.Metrics,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Submit hands a job to the pool, blocking if the queue is full.
func (p *Pool) Submit(j Job) { p.jobs <- j }

// Close stops accepting new jobs and waits for in-flight writes to
// complete, per §5's "best-effort daemon behavior" for already
// handed-off segments.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.process(j)
	}
}

func (p *Pool) process(j Job) {
	seg := j.Segment
	base := strconv.FormatInt(seg.Timestamp, 10)
	rawPath := filepath.Join(j.OutputFolder, base+".raw")
	tsPath := filepath.Join(j.OutputFolder, base+".ts")

	if err := os.WriteFile(rawPath, seg.Bytes, 0o644); err != nil {
		p.log.Error(pkg+"could not write raw segment", "path", rawPath, "error", err.Error())
		return
	}

	cmd := exec.Command(filepath.Join(p.execDir, p.convertTool),
		filepath.Join(j.OutputFolder, base), j.OutputFolder)
	if out, err := cmd.CombinedOutput(); err != nil {
		p.log.Error(pkg+"rewrap command failed", "path", rawPath, "error", err.Error(), "output", string(out))
		return
	}

	if p.serviceAcct != "" {
		if err := chown(tsPath, p.serviceAcct); err != nil {
			p.log.Error(pkg+"could not chown segment", "path", tsPath, "error", err.Error())
		}
	}

	if p.metrics != nil {
		p.metrics.SegmentEmitted(len(seg.Bytes))
	}
	p.log.Info(pkg+"segment written", "path", tsPath, "bytes", len(seg.Bytes))

	if p.uploader != nil {
		if err := p.uploader.Upload(context.Background(), tsPath, seg.Timestamp); err != nil {
			p.log.Error(pkg+"upload failed", "path", tsPath, "error", err.Error())
		}
	}
}

// chown sets the owner of path to account's uid and its group to
// account's primary gid.
func chown(path, account string) error {
	u, err := user.Lookup(account)
	if err != nil {
		return fmt.Errorf("could not look up service account %q: %w", account, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("bad uid for %q: %w", account, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("bad gid for %q: %w", account, err)
	}
	return os.Chown(path, uid, gid)
}
