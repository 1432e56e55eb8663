// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"sync"

	"github.com/xmidt-org/iris/model"
	"go.uber.org/zap"
)

// DefaultIngressBound is the capacity of the process-wide notification queue.
const DefaultIngressBound = 65536

// Ingress is the single FIFO between the message bus and the dispatcher.
// Notify never blocks the bus: when the queue is full the notification is
// dropped, which loses it for every watcher, so the drop is logged at error
// level and counted.
type Ingress struct {
	logger   *zap.Logger
	measures Measures

	mu     sync.Mutex
	ch     chan model.Notification
	closed bool
}

func NewIngress(bound int, logger *zap.Logger, measures Measures) *Ingress {
	if bound <= 0 {
		bound = DefaultIngressBound
	}
	return &Ingress{
		logger:   logger,
		measures: measures,
		ch:       make(chan model.Notification, bound),
	}
}

// Notify is the bus collaborator's entry point. It never fails and never
// blocks the caller.
func (i *Ingress) Notify(n model.Notification) {
	n.Type = model.WireName(n.Type)
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		i.measures.IngressDrops.WithLabelValues(ClosedReason).Add(1.0)
		return
	}
	select {
	case i.ch <- n:
	default:
		i.logger.Error("ingress queue full, notification lost for all watchers",
			zap.String("type", n.Type),
			zap.String("oper", string(n.Oper)),
			zap.String("uuid", n.UUID),
		)
		i.measures.IngressDrops.WithLabelValues(FullReason).Add(1.0)
	}
}

// notifications is the dispatcher's consumer side.
func (i *Ingress) notifications() <-chan model.Notification {
	return i.ch
}

// Close stops accepting notifications and lets the dispatcher drain what is
// already queued. Part of process teardown: close the ingress first, then
// unsubscribe clients.
func (i *Ingress) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	close(i.ch)
}
