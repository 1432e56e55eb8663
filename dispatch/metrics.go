// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	NotificationCounter = "watch_notifications_total"
	EventCounter        = "watch_events_total"
	IngressDropCounter  = "watch_ingress_dropped_total"
	OverflowCounter     = "watch_queue_overflow_total"
	ClientGauge         = "watch_clients"
)

// Labels
const (
	TypeLabel    = "type"
	KindLabel    = "kind"
	OutcomeLabel = "outcome"
	ReasonLabel  = "reason"
)

// Label Values
const (
	DispatchedOutcome    = "dispatched"
	NoSubscribersOutcome = "no_subscribers"
	NotFoundOutcome      = "not_found"
	ReadErrorOutcome     = "read_error"

	FullReason   = "queue_full"
	ClosedReason = "ingress_closed"
)

// ProvideMetrics returns the Metrics relevant to this package.
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: NotificationCounter,
				Help: "Counter for bus notifications consumed, by resource type and dispatch outcome.",
			},
			TypeLabel, OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: EventCounter,
				Help: "Counter for events enqueued to watch clients, by resource type and event kind.",
			},
			TypeLabel, KindLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: IngressDropCounter,
				Help: "Counter for notifications lost at the ingress queue. Any increase here is delivery loss for every watcher.",
			},
			ReasonLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: OverflowCounter,
				Help: "Counter for clients disconnected because their queue overflowed.",
			},
			TypeLabel,
		),
		touchstone.Gauge(
			prometheus.GaugeOpts{
				Name: ClientGauge,
				Help: "Number of connected watch clients.",
			},
		),
	)
}

type Measures struct {
	fx.In
	Notifications *prometheus.CounterVec `name:"watch_notifications_total"`
	Events        *prometheus.CounterVec `name:"watch_events_total"`
	IngressDrops  *prometheus.CounterVec `name:"watch_ingress_dropped_total"`
	Overflows     *prometheus.CounterVec `name:"watch_queue_overflow_total"`
	Clients       prometheus.Gauge       `name:"watch_clients"`
}
