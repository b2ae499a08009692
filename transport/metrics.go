// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the transport's Prometheus collectors on a self-contained
// registry so embedding applications can expose them without collisions.
type Metrics struct {
	reg      *prometheus.Registry
	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	retries  prometheus.Counter
	latency  *prometheus.HistogramVec
	poolWait prometheus.Histogram
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "minioasync",
		Subsystem: "transport",
		Name:      "inflight_requests",
		Help:      "Current number of requests holding a connection slot.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minioasync",
		Subsystem: "transport",
		Name:      "requests_total",
		Help:      "Total requests by method and terminal state.",
	}, []string{"method", "state"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "minioasync",
		Subsystem: "transport",
		Name:      "retries_total",
		Help:      "Total retry attempts after transient failures.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "minioasync",
		Subsystem: "transport",
		Name:      "request_duration_seconds",
		Help:      "Histogram of request latencies by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
	poolWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "minioasync",
		Subsystem: "transport",
		Name:      "pool_wait_seconds",
		Help:      "Time spent waiting for a free connection slot.",
		Buckets:   prometheus.DefBuckets,
	})

	_ = reg.Register(inflight)
	_ = reg.Register(requests)
	_ = reg.Register(retries)
	_ = reg.Register(latency)
	_ = reg.Register(poolWait)

	return &Metrics{
		reg:      reg,
		inflight: inflight,
		requests: requests,
		retries:  retries,
		latency:  latency,
		poolWait: poolWait,
	}
}

// Handler serves the transport metrics from the internal registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(method string, state State, dur time.Duration) {
	m.requests.WithLabelValues(method, state.String()).Inc()
	m.latency.WithLabelValues(method).Observe(dur.Seconds())
}
