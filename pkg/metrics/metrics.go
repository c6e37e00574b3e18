// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes prometheus instrumentation for the grid engine.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
)

const (
	// Component labels.
	ComponentGrid        = "grid"
	ComponentReconciler  = "reconciler"
	ComponentFilterCodec = "filter_codec"
	ComponentShareToken  = "share_token"
	ComponentEditSession = "edit_session"
	ComponentResolver    = "parent_resolver"
	ComponentClient      = "client"
	ComponentSettings    = "settings"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "umh"
	subsystem = "recordgrid"

	// Error counters.
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component", "instance"},
	)

	// Page normalization.
	pagesNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pages_normalized_total",
			Help:      "Total number of pages normalized by wire format",
		},
		[]string{"format"},
	)

	rowsPerPage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rows_per_page",
			Help:      "Rows produced per normalized page",
			Buckets:   []float64{1, 5, 10, 20, 50, 100, 250, 500},
		},
		[]string{"format"},
	)

	// Edit session outcomes.
	editOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "edit_outcomes_total",
			Help:      "Edit session terminal outcomes (committed, cancelled, noop, rejected, warning)",
		},
		[]string{"outcome"},
	)

	// Backend request timing.
	requestDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_milliseconds",
			Help:      "Time taken per backend request (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01, // 50th percentile with 1% error
				0.9:  0.01, // 90th percentile with 1% error
				0.95: 0.01, // 95th percentile with 1% error
				0.99: 0.01, // 99th percentile with 1% error
			},
		},
		[]string{"endpoint"},
	)
)

// SetupMetricsEndpoint starts an HTTP server exposing /metrics on addr.
func SetupMetricsEndpoint(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.For("metrics").Errorf("Metrics endpoint failed: %v", err)
		}
	}()

	return server
}

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Inc()
}

// InitErrorCounter initializes the error counter for a component.
func InitErrorCounter(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Add(0)
}

// ObservePageNormalized records one successfully normalized page.
func ObservePageNormalized(format string, rows int) {
	pagesNormalized.WithLabelValues(format).Inc()
	rowsPerPage.WithLabelValues(format).Observe(float64(rows))
}

// IncEditOutcome records a terminal edit session outcome.
func IncEditOutcome(outcome string) {
	editOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveRequestDuration records the time taken for one backend request.
func ObserveRequestDuration(endpoint string, duration time.Duration) {
	requestDuration.WithLabelValues(endpoint).Observe(float64(duration.Milliseconds()))
}
