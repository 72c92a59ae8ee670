/*
NAME
  tscut-cleanup - removes expired segment files from the output folder.

DESCRIPTION
  Periodically scans the configured output folder and removes .raw/.ts
  files older than MAX_SEGMENT_AGE seconds. This is deliberately a
  separate process from tscut itself: filesystem cleanup of expired
  segments is named in the core specification as an external
  collaborator, not part of the ingestion core.

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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ausocean/tscut/internal/config"
)

const pkg = "tscut-cleanup: "

// sweepInterval is how often the output folder is scanned.
const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, pkg+"bad configuration: "+err.Error())
		os.Exit(1)
	}

	maxAge := time.Duration(cfg.MaxSegmentAge) * time.Second
	for {
		if err := sweep(cfg.OutputFolder, maxAge); err != nil {
			fmt.Fprintln(os.Stderr, pkg+"sweep failed: "+err.Error())
		}
		time.Sleep(sweepInterval)
	}
}

// sweep removes .raw and .ts files in dir whose modification time is older
// than maxAge.
func sweep(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("could not read output folder: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".raw" && ext != ".ts" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil && !strings.Contains(err.Error(), "no such file") {
				fmt.Fprintln(os.Stderr, pkg+"could not remove "+path+": "+err.Error())
			}
		}
	}
	return nil
}
