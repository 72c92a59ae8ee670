/*
NAME
  config.go

DESCRIPTION
  config.go defines the configuration settings for tscut and loads them
  from environment variables.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for tscut.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config provides parameters relevant to a tscut instance. Values are
// loaded from environment variables by Load; defaults are applied for any
// variable left unset.
type Config struct {
	// ListenIP and ListenPort define the UDP socket the receiver binds to.
	// Set from MPEGTS_UDP_IP / MPEGTS_UDP_PORT.
	ListenIP   string
	ListenPort int

	// Program is the seeded program number the lookup table admits.
	// Set from VALID_CHANNEL.
	Program uint16

	// OutputFolder is the directory .raw and .ts files are written to.
	// Set from OUTPUT_FOLDER.
	OutputFolder string

	// MaxBufferSize is the segment size threshold in bytes.
	// Set from SEQUENCE_LENGTH_IN_BYTES.
	MaxBufferSize int

	// ExecDir and ConvertRawTS locate the external rewrap tool.
	// Set from EXEC_DIR / CONVERT_RAW_TS.
	ExecDir      string
	ConvertRawTS string

	// ServiceAccount is the owner the produced .ts is chowned to. Empty
	// disables the chown step. Set from SERVICE_ACCOUNT.
	ServiceAccount string

	// WriterWorkers and WriterQueueDepth size the bounded writer pool.
	// Set from WRITER_WORKERS / WRITER_QUEUE_DEPTH.
	WriterWorkers    int
	WriterQueueDepth int

	// MetricsAddr, if non-empty, is the listen address for the Prometheus
	// /metrics endpoint. Set from METRICS_ADDR.
	MetricsAddr string

	// LogPath and LogLevel configure ambient logging.
	// Set from LOG_PATH / LOG_LEVEL.
	LogPath  string
	LogLevel int8

	// S3Bucket, if non-empty, enables upload of completed segments.
	// Set from S3_BUCKET / S3_PREFIX / S3_REGION / S3_ENDPOINT.
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// MaxSegmentAge bounds how long .raw/.ts files are kept by
	// cmd/tscut-cleanup. Set from MAX_SEGMENT_AGE (seconds).
	MaxSegmentAge int
}

// Defaults for fields that may be left unset.
const (
	DefaultListenPort       = 8554
	DefaultMaxBufferSize    = 2 << 20 // 2 MiB
	DefaultWriterWorkers    = 4
	DefaultWriterQueueDepth = 16
	DefaultLogLevel         = 0 // logging.Info
	DefaultMaxSegmentAge    = 3600
)

// Load reads configuration from the process environment, applying
// defaults for anything unset, and validates required fields.
func Load() (*Config, error) {
	c := &Config{
		ListenIP:         getEnv("MPEGTS_UDP_IP", "0.0.0.0"),
		ListenPort:       getEnvInt("MPEGTS_UDP_PORT", DefaultListenPort),
		OutputFolder:     getEnv("OUTPUT_FOLDER", "."),
		MaxBufferSize:    getEnvInt("SEQUENCE_LENGTH_IN_BYTES", DefaultMaxBufferSize),
		ExecDir:          getEnv("EXEC_DIR", "."),
		ConvertRawTS:     getEnv("CONVERT_RAW_TS", "convert_raw_ts"),
		ServiceAccount:   getEnv("SERVICE_ACCOUNT", ""),
		WriterWorkers:    getEnvInt("WRITER_WORKERS", DefaultWriterWorkers),
		WriterQueueDepth: getEnvInt("WRITER_QUEUE_DEPTH", DefaultWriterQueueDepth),
		MetricsAddr:      getEnv("METRICS_ADDR", ""),
		LogPath:          getEnv("LOG_PATH", ""),
		LogLevel:         int8(getEnvInt("LOG_LEVEL", DefaultLogLevel)),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		S3Region:         getEnv("S3_REGION", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		MaxSegmentAge:    getEnvInt("MAX_SEGMENT_AGE", DefaultMaxSegmentAge),
	}

	program := getEnvInt("VALID_CHANNEL", -1)
	if program < 0 || program > 0x1fff {
		return nil, fmt.Errorf("VALID_CHANNEL must be set to a program number in [0, 8191]")
	}
	c.Program = uint16(program)

	if c.MaxBufferSize <= 0 {
		return nil, fmt.Errorf("SEQUENCE_LENGTH_IN_BYTES must be positive")
	}

	return c, nil
}

// ListenAddr returns the UDP listen address in host:port form.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenIP, c.ListenPort)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
