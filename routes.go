// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/xmidt-org/arrange/arrangehttp"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/httpaux"
	"github.com/xmidt-org/httpaux/recovery"
	"github.com/xmidt-org/iris/watch"
	"github.com/xmidt-org/touchstone/touchhttp"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/fx"
)

// MetricsHandler serves the prometheus scrape endpoint.
type MetricsHandler http.Handler

// Paths served by the auxiliary servers.
type (
	HealthPath  string
	MetricsPath string
)

type RoutesIn struct {
	fx.In
	PrimaryMetrics touchhttp.ServerInstrumenter `name:"servers.primary.metrics"`
	Tracing        candlelight.Tracing
	Handlers       PrimaryHandlersIn
}

type RoutesOut struct {
	fx.Out
	Primary arrangehttp.Option[http.Server] `group:"servers.primary.options"`
}

type PrimaryHandlersIn struct {
	fx.In
	Watch    watch.Handler `name:"watch_handler"`
	Watchers watch.Handler `name:"watchers_handler"`
}

func provideCoreEndpoints() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: "servers.primary.metrics",
			Target: touchhttp.ServerBundle{}.NewInstrumenter(
				touchhttp.ServerLabel, "primary",
			),
		},
		fx.Annotated{
			Name: "servers.health.metrics",
			Target: touchhttp.ServerBundle{}.NewInstrumenter(
				touchhttp.ServerLabel, "health",
			),
		},
		func(in RoutesIn) RoutesOut {
			return RoutesOut{
				Primary: providePrimaryOption(in),
			}
		},
	)
}

func providePrimaryOption(in RoutesIn) arrangehttp.Option[http.Server] {
	return arrangehttp.AsOption[http.Server](
		func(s *http.Server) {
			router := mux.NewRouter()

			options := []otelmux.Option{
				otelmux.WithTracerProvider(in.Tracing.TracerProvider()),
				otelmux.WithPropagators(in.Tracing.Propagator()),
			}
			router.Use(otelmux.Middleware("server_primary", options...),
				candlelight.EchoFirstTraceNodeInfo(in.Tracing, false))

			router.Handle(fmt.Sprintf("/%s/watch", apiBase), in.Handlers.Watch).
				Methods(http.MethodGet)
			router.Handle(fmt.Sprintf("/%s/watchers", apiBase), in.Handlers.Watchers).
				Methods(http.MethodGet)

			s.Handler = alice.New(
				in.PrimaryMetrics.Then,
				recovery.Middleware(recovery.WithStatusCode(http.StatusInternalServerError)),
			).Then(router)

			// streams outlive any sane write deadline; the transport sets
			// per-event deadlines itself
			s.WriteTimeout = 0
		},
	)
}

func provideHealthCheck() fx.Option {
	return fx.Provide(
		fx.Annotate(
			func(metrics touchhttp.ServerInstrumenter, path HealthPath) arrangehttp.Option[http.Server] {
				return arrangehttp.AsOption[http.Server](
					func(s *http.Server) {
						router := mux.NewRouter()
						router.Handle(string(path), httpaux.ConstantHandler{
							StatusCode: http.StatusOK,
						}).Methods(http.MethodGet)
						s.Handler = metrics.Then(router)
					},
				)
			},
			fx.ParamTags(`name:"servers.health.metrics"`),
			fx.ResultTags(`group:"servers.health.options"`),
		),
	)
}

func provideMetricEndpoint() fx.Option {
	return fx.Provide(
		fx.Annotate(
			func(metrics MetricsHandler, path MetricsPath) arrangehttp.Option[http.Server] {
				return arrangehttp.AsOption[http.Server](
					func(s *http.Server) {
						router := mux.NewRouter()
						router.Handle(string(path), metrics).Methods(http.MethodGet)
						s.Handler = router
					},
				)
			},
			fx.ResultTags(`group:"servers.metrics.options"`),
		),
	)
}
