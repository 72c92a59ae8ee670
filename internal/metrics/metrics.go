/*
NAME
  metrics.go

DESCRIPTION
  metrics.go exposes Prometheus counters and gauges for packet
  classification, segment emission and buffer fill.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package metrics implements the ambient Prometheus instrumentation for
// the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PID classes used to label the packets counter.
const (
	ClassPAT     = "pat"
	ClassPMT     = "pmt"
	ClassVideo   = "video"
	ClassAudio   = "audio"
	ClassDropped = "dropped"
)

// Collector wraps the Prometheus metrics this service exports.
type Collector struct {
	registry     *prometheus.Registry
	packets      *prometheus.CounterVec
	segments     prometheus.Counter
	segmentBytes prometheus.Histogram
	bufferFill   prometheus.Gauge
}

// New registers and returns a Collector on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		packets: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tscut_packets_total",
			Help: "Transport stream packets observed, by PID classification.",
		}, []string{"pid_class"}),
		segments: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tscut_segments_emitted_total",
			Help: "Segments successfully written and rewrapped.",
		}),
		segmentBytes: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "tscut_segment_bytes",
			Help:    "Size in bytes of emitted segments at flush.",
			Buckets: prometheus.ExponentialBuckets(1<<18, 2, 10),
		}),
		bufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tscut_buffer_fill_bytes",
			Help: "Current fill of the active segment buffer.",
		}),
	}
	c.registry = reg
	return c
}

// Handler returns an http.Handler serving this Collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// CountPacket increments the packet counter for the given PID class.
func (c *Collector) CountPacket(class string) { c.packets.WithLabelValues(class).Inc() }

// SegmentEmitted records a successfully written segment of n bytes.
func (c *Collector) SegmentEmitted(n int) {
	c.segments.Inc()
	c.segmentBytes.Observe(float64(n))
}

// SetBufferFill updates the current segment buffer fill gauge.
func (c *Collector) SetBufferFill(n int) { c.bufferFill.Set(float64(n)) }
