// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"github.com/xmidt-org/iris/dispatch"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type streamHandlerIn struct {
	fx.In

	Registry    *dispatch.Registry
	Snapshotter *dispatch.Snapshotter
	Config      dispatch.Config
	Logger      *zap.Logger
	Measures    dispatch.Measures
}

// ProvideHandlers builds the two HTTP surfaces of the watch subsystem: the
// streaming handler and the operator status handler.
func ProvideHandlers() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: "watch_handler",
			Target: func(in streamHandlerIn) Handler {
				return NewStreamHandler(in.Registry, in.Snapshotter, in.Config,
					in.Logger, in.Measures)
			},
		},
		fx.Annotated{
			Name:   "watchers_handler",
			Target: NewStatusHandler,
		},
	)
}
