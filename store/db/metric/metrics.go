// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	QuerySuccessCounter  = "store_query_success_count"
	QueryFailureCounter  = "store_query_failure_count"
	QueryDurationSeconds = "store_query_duration_seconds"
)

// ProvideMetrics returns the Metrics relevant to this package.
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: QuerySuccessCounter,
				Help: "Counter for successful object store queries.",
			},
			"type",
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: QueryFailureCounter,
				Help: "Counter for failed object store queries.",
			},
			"type",
		),
		touchstone.HistogramVec(
			prometheus.HistogramOpts{
				Name:    QueryDurationSeconds,
				Help:    "A histogram of latencies for object store queries.",
				Buckets: []float64{0.0625, 0.125, .25, .5, 1, 5, 10, 20, 40, 80, 160},
			},
			"type",
		),
	)
}

type Measures struct {
	fx.In
	QuerySuccessCount *prometheus.CounterVec   `name:"store_query_success_count"`
	QueryFailureCount *prometheus.CounterVec   `name:"store_query_failure_count"`
	QueryDuration     *prometheus.HistogramVec `name:"store_query_duration_seconds"`
}
