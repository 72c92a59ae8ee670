/*
NAME
  writer_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package writer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ausocean/tscut/internal/segmenter"
)

type nopLogger struct{}

func (nopLogger) SetLevel(int8)                                         {}
func (nopLogger) Log(level int8, message string, params ...interface{}) {}
func (nopLogger) Debug(msg string, params ...interface{})               {}
func (nopLogger) Info(msg string, params ...interface{})                {}
func (nopLogger) Warning(msg string, params ...interface{})             {}
func (nopLogger) Error(msg string, params ...interface{})               {}
func (nopLogger) Fatal(msg string, params ...interface{})               {}

type recordingUploader struct {
	mu    sync.Mutex
	paths []string
}

func (u *recordingUploader) Upload(ctx context.Context, path string, timestamp int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, path)
	return nil
}

// fakeRewrap writes a shell script that copies its first argument plus
// ".raw" to its first argument plus ".ts", standing in for the external
// rewrap tool.
func fakeRewrap(t *testing.T, dir string) (execDir, tool string) {
	t.Helper()
	script := filepath.Join(dir, "rewrap.sh")
	contents := "#!/bin/sh\ncp \"$1.raw\" \"$1.ts\"\n"
	if err := os.WriteFile(script, []byte(contents), 0o755); err != nil {
		t.Fatalf("could not write fake rewrap tool: %v", err)
	}
	return dir, "rewrap.sh"
}

func TestPoolWritesRawAndInvokesRewrap(t *testing.T) {
	dir := t.TempDir()
	execDir, tool := fakeRewrap(t, dir)

	uploader := &recordingUploader{}
	pool := NewPool(Config{
		Workers:     1,
		QueueDepth:  1,
		ExecDir:     execDir,
		ConvertTool: tool,
		Uploader:    uploader,
		Log:         nopLogger{},
	})

	seg := &segmenter.Segment{Bytes: []byte("segment-bytes"), Timestamp: 1700000000, Sequence: 1}
	pool.Submit(Job{Segment: seg, OutputFolder: dir})
	pool.Close()

	rawPath := filepath.Join(dir, "1700000000.raw")
	tsPath := filepath.Join(dir, "1700000000.ts")

	if _, err := os.Stat(rawPath); err != nil {
		t.Fatalf(".raw file missing: %v", err)
	}
	if _, err := os.Stat(tsPath); err != nil {
		t.Fatalf(".ts file missing: %v", err)
	}

	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	if len(uploader.paths) != 1 || uploader.paths[0] != tsPath {
		t.Errorf("uploader.paths = %v, want [%s]", uploader.paths, tsPath)
	}
}

func TestPoolSkipsUploadWhenRewrapFails(t *testing.T) {
	dir := t.TempDir()
	uploader := &recordingUploader{}
	pool := NewPool(Config{
		Workers:     1,
		QueueDepth:  1,
		ExecDir:     dir,
		ConvertTool: "does-not-exist.sh",
		Uploader:    uploader,
		Log:         nopLogger{},
	})

	seg := &segmenter.Segment{Bytes: []byte("x"), Timestamp: 42, Sequence: 1}
	pool.Submit(Job{Segment: seg, OutputFolder: dir})
	pool.Close()

	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	if len(uploader.paths) != 0 {
		t.Errorf("expected no upload after failed rewrap, got %v", uploader.paths)
	}
}
