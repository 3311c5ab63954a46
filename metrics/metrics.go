/*
Copyright 2026 The Flux authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics records the outcome of artifact resolutions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// OutcomeServed is recorded when an artifact was returned.
	OutcomeServed = "served"
	// OutcomeNotFound is recorded when no artifact qualified.
	OutcomeNotFound = "not_found"
	// OutcomeError is recorded when the resolution failed.
	OutcomeError = "error"
)

const namespace = "osus_proxy"

// Recorder holds the proxy collectors. A nil *Recorder records nothing.
type Recorder struct {
	resolutions *prometheus.CounterVec
	duration    prometheus.Histogram
	servedBytes prometheus.Counter
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		resolutions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of artifact resolutions partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		duration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Duration of artifact resolutions, download included.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		servedBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "served_bytes_total",
				Help:      "Total number of artifact bytes written to clients.",
			},
		),
	}

	// Expose every outcome from the start.
	for _, outcome := range []string{OutcomeServed, OutcomeNotFound, OutcomeError} {
		r.resolutions.WithLabelValues(outcome)
	}
	return r
}

// RecordResolution records the outcome and duration of one resolution.
func (r *Recorder) RecordResolution(outcome string, start time.Time) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(outcome).Inc()
	r.duration.Observe(time.Since(start).Seconds())
}

// RecordServedBytes adds n to the served bytes counter.
func (r *Recorder) RecordServedBytes(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.servedBytes.Add(float64(n))
}
