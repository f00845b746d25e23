// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels reported to MetricsRecorder.
const (
	ResultHit       = "hit"
	ResultPopulated = "populated"
	ResultNotFound  = "not_found"
	ResultError     = "error"
	ResultInvalid   = "invalid"
)

// MetricsRecorder is the interface implemented to receive request outcomes
// from the running Service.
type MetricsRecorder interface {
	// RecordResolve records the outcome of one Resolve call.
	RecordResolve(result string)

	// RecordOriginFetch records one origin fetch and its duration. The
	// result is one of ResultPopulated, ResultNotFound or ResultError.
	RecordOriginFetch(result string, elapsed time.Duration)

	// RecordBytesWritten records the size of an icon written to the store.
	RecordBytesWritten(n int)
}

// NoopMetricsRecorder is a no-op implementation for when metrics are disabled.
type NoopMetricsRecorder struct{}

// RecordResolve is a no-op.
func (NoopMetricsRecorder) RecordResolve(string) {}

// RecordOriginFetch is a no-op.
func (NoopMetricsRecorder) RecordOriginFetch(string, time.Duration) {}

// RecordBytesWritten is a no-op.
func (NoopMetricsRecorder) RecordBytesWritten(int) {}

// PrometheusMetricsRecorder records metrics using Prometheus.
type PrometheusMetricsRecorder struct {
	requestsTotal     *prometheus.CounterVec
	originFetch       *prometheus.HistogramVec
	bytesWrittenTotal prometheus.Counter
}

// NewPrometheusMetricsRecorder creates a Prometheus metrics recorder and
// registers its collectors to reg. If reg is nil, the default registerer is
// used. It panics if the collectors are already registered.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iconcache_requests_total",
		Help: "Total icon resolve requests by result",
	}, []string{"result"})

	originFetch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iconcache_origin_fetch_seconds",
		Help:    "Duration of icon fetches from the origin",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	bytesWrittenTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iconcache_bytes_written_total",
		Help: "Total bytes of icons written to the store",
	})

	reg.MustRegister(requestsTotal, originFetch, bytesWrittenTotal)

	return &PrometheusMetricsRecorder{
		requestsTotal:     requestsTotal,
		originFetch:       originFetch,
		bytesWrittenTotal: bytesWrittenTotal,
	}
}

// RecordResolve records the outcome of one Resolve call.
func (p *PrometheusMetricsRecorder) RecordResolve(result string) {
	p.requestsTotal.WithLabelValues(result).Inc()
}

// RecordOriginFetch records one origin fetch and its duration.
func (p *PrometheusMetricsRecorder) RecordOriginFetch(result string, elapsed time.Duration) {
	p.originFetch.WithLabelValues(result).Observe(elapsed.Seconds())
}

// RecordBytesWritten records the size of an icon written to the store.
func (p *PrometheusMetricsRecorder) RecordBytesWritten(n int) {
	p.bytesWrittenTotal.Add(float64(n))
}

var (
	_ MetricsRecorder = NoopMetricsRecorder{}
	_ MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
)
