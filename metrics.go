// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// provideMetrics bootstraps the prometheus environment: registry, metric
// factory, and the /metrics scrape handler.
func provideMetrics() fx.Option {
	return fx.Provide(
		func(v *viper.Viper) (touchstone.Config, error) {
			var config touchstone.Config
			err := v.UnmarshalKey("prometheus", &config)
			return config, err
		},
		touchstone.New,
		func(config touchstone.Config, logger *zap.Logger, registerer prometheus.Registerer) *touchstone.Factory {
			return touchstone.NewFactory(config, logger, registerer)
		},
		func(gatherer prometheus.Gatherer) MetricsHandler {
			return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		},
	)
}
