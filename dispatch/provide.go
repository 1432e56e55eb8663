// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"github.com/xmidt-org/iris/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ConfigKey is the viper key holding the dispatcher tunables.
const ConfigKey = "dispatch"

// DefaultWriteTimeout bounds a single socket write in the watch transport.
// It lives here so all subsystem tunables unmarshal from one config block.
const DefaultWriteTimeout = 30 * time.Second

type Config struct {
	// QueueBound is the per-client event queue capacity. A client that
	// falls this far behind is disconnected.
	QueueBound int

	// IngressBound is the capacity of the process-wide notification queue.
	// Overflow here is delivery loss for every watcher.
	IngressBound int

	// ReadTimeout bounds object reads and initial listings.
	ReadTimeout time.Duration

	// WriteTimeout bounds one event write to a watch client's socket.
	WriteTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.QueueBound <= 0 {
		c.QueueBound = DefaultQueueBound
	}
	if c.IngressBound <= 0 {
		c.IngressBound = DefaultIngressBound
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}

// Provide builds the whole fan-out subsystem: registry, ingress,
// snapshotter, dispatcher, and the lifecycle hook that runs the loop.
func Provide() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			unmarshalConfig,
			newRegistry,
			newIngress,
			newSnapshotter,
			newDispatcher,
		),
		fx.Invoke(runDispatcher),
	)
}

func unmarshalConfig(v *viper.Viper) (Config, error) {
	var config Config
	if err := v.UnmarshalKey(ConfigKey, &config); err != nil {
		return Config{}, err
	}
	config.applyDefaults()
	return config, nil
}

type registryIn struct {
	fx.In
	Logger *zap.Logger
}

func newRegistry(in registryIn) *Registry {
	return NewRegistry(in.Logger)
}

type ingressIn struct {
	fx.In
	Config   Config
	Logger   *zap.Logger
	Measures Measures
}

func newIngress(in ingressIn) *Ingress {
	return NewIngress(in.Config.IngressBound, in.Logger, in.Measures)
}

type snapshotterIn struct {
	fx.In
	Config   Config
	Registry *Registry
	Reader   store.Reader
	Logger   *zap.Logger
}

func newSnapshotter(in snapshotterIn) *Snapshotter {
	return NewSnapshotter(in.Registry, in.Reader, in.Config.ReadTimeout, in.Logger)
}

type dispatcherIn struct {
	fx.In
	Config   Config
	Ingress  *Ingress
	Registry *Registry
	Reader   store.Reader
	Logger   *zap.Logger
	Measures Measures
}

func newDispatcher(in dispatcherIn) *Dispatcher {
	return NewDispatcher(in.Ingress, in.Registry, in.Reader, in.Config.ReadTimeout,
		in.Logger, in.Measures)
}

func runDispatcher(lc fx.Lifecycle, d *Dispatcher, ingress *Ingress) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				d.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			// closing the ingress lets the loop drain what is queued
			ingress.Close()
			select {
			case <-done:
			case <-stopCtx.Done():
				cancel()
				<-done
			}
			cancel()
			return nil
		},
	})
}
