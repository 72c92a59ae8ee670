/*
NAME
  tscut - MPEG-TS UDP ingest and key-frame segmenter.

DESCRIPTION
  Reads a live MPEG-TS feed over UDP, resolves PAT/PMT for a single
  configured program, and emits key-frame-aligned segment files.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/tscut/internal/config"
	"github.com/ausocean/tscut/internal/ingest"
	"github.com/ausocean/tscut/internal/metrics"
	"github.com/ausocean/tscut/internal/receiver"
	"github.com/ausocean/tscut/internal/storage"
	"github.com/ausocean/tscut/internal/writer"
)

const pkg = "tscut: "

const version = "0.1.0"

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	checkConfig := flag.Bool("check-config", false, "load configuration, print it, and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("tscut version " + version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, pkg+"bad configuration: "+err.Error())
		os.Exit(1)
	}

	if *checkConfig {
		fmt.Printf("%+v\n", *cfg)
		return
	}

	if err := os.MkdirAll(cfg.OutputFolder, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, pkg+"could not create output folder: "+err.Error())
		os.Exit(1)
	}

	log := newLogger(cfg)

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			log.Info(pkg+"serving metrics", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, m.Handler()); err != nil {
				log.Error(pkg+"metrics server stopped", "error", err.Error())
			}
		}()
	}

	var uploader writer.Uploader
	if cfg.S3Bucket != "" {
		sink, err := storage.NewS3Sink(context.Background(), storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Error(pkg+"could not initialize s3 sink, continuing without upload", "error", err.Error())
		} else {
			uploader = sink
		}
	}

	pool := writer.NewPool(writer.Config{
		Workers:     cfg.WriterWorkers,
		QueueDepth:  cfg.WriterQueueDepth,
		ExecDir:     cfg.ExecDir,
		ConvertTool: cfg.ConvertRawTS,
		ServiceAcct: cfg.ServiceAccount,
		Uploader:    uploader,
		Log:         log,
		Metrics:     m,
	})
	defer pool.Close()

	recv, err := receiver.New(cfg.ListenAddr())
	if err != nil {
		log.Fatal(pkg+"could not start receiver", "error", err.Error())
	}
	defer recv.Close()

	pipe := ingest.New(recv, cfg.Program, cfg.MaxBufferSize, pool, cfg.OutputFolder, log, m)

	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Debug(pkg+"could not notify systemd", "error", err.Error())
	} else if sent {
		log.Debug(pkg + "notified systemd readiness")
	}

	log.Info(pkg+"starting ingestion", "listen", cfg.ListenAddr(), "program", cfg.Program)
	if err := pipe.Run(); err != nil {
		daemon.SdNotify(false, "WATCHDOG=trigger")
		log.Fatal(pkg+"receiver terminated", "error", err.Error())
	}
}

func newLogger(cfg *config.Config) logging.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogPath != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     28,
		})
	}
	return logging.New(cfg.LogLevel, out, false)
}
