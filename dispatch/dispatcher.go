// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
	"go.uber.org/zap"
)

// DefaultReadTimeout bounds a single object read on the live path.
const DefaultReadTimeout = 5 * time.Second

// Dispatcher is the fan-out loop: it consumes the ingress queue,
// materializes changed objects through the store, projects them per client,
// and enqueues encoded events. A single goroutine runs the loop, which is
// what preserves per-(type,uuid) FIFO without further synchronization.
type Dispatcher struct {
	ingress     *Ingress
	registry    *Registry
	reader      store.Reader
	readTimeout time.Duration
	logger      *zap.Logger
	measures    Measures
}

func NewDispatcher(ingress *Ingress, registry *Registry, reader store.Reader,
	readTimeout time.Duration, logger *zap.Logger, measures Measures) *Dispatcher {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Dispatcher{
		ingress:     ingress,
		registry:    registry,
		reader:      reader,
		readTimeout: readTimeout,
		logger:      logger,
		measures:    measures,
	}
}

// Run consumes notifications until the context is canceled or the ingress is
// closed and drained. Per-notification failures never terminate the loop.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-d.ingress.notifications():
			if !ok {
				return
			}
			d.dispatch(ctx, n)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, n model.Notification) {
	if !n.Oper.Valid() {
		d.logger.Warn("unrecognized operation, notification discarded",
			zap.String("type", n.Type),
			zap.String("oper", string(n.Oper)),
			zap.String("uuid", n.UUID),
		)
		return
	}

	// no-subscribers fast path: nothing is read from the store
	s, ok := d.registry.sample(n.Type)
	if !ok {
		d.measures.Notifications.WithLabelValues(n.Type, NoSubscribersOutcome).Add(1.0)
		return
	}

	// deletes carry everything a client needs; skip the read entirely
	if n.Oper == model.OperationDelete {
		d.deliverDelete(n, s.members)
		d.measures.Notifications.WithLabelValues(n.Type, DispatchedOutcome).Add(1.0)
		return
	}

	readCtx, cancel := context.WithTimeout(ctx, d.readTimeout)
	body, err := d.reader.Read(readCtx, n.Type, n.UUID, readFields(s))
	cancel()

	if err != nil {
		if store.IsNotFound(err) {
			// the object vanished between the notification and the read
			d.deliverDelete(n, d.registry.reintersect(n.Type, s.members))
			d.measures.Notifications.WithLabelValues(n.Type, NotFoundOutcome).Add(1.0)
			return
		}
		if store.IsTransient(err) {
			d.logger.Warn("transient read failure, stopping affected watchers",
				zap.String("type", n.Type), zap.String("uuid", n.UUID), zap.Error(err))
		} else {
			d.logger.Error("read failure, stopping affected watchers",
				zap.String("type", n.Type), zap.String("uuid", n.UUID), zap.Error(err))
		}
		d.deliverStop(n.Type, d.registry.reintersect(n.Type, s.members), err)
		d.measures.Notifications.WithLabelValues(n.Type, ReadErrorOutcome).Add(1.0)
		return
	}

	// queues may have come or gone during the read; deliver only to the
	// intersection of the pre-read sample and the current watcher
	members := d.registry.reintersect(n.Type, s.members)
	kind := n.Oper.EventKind()
	restName := model.RESTName(n.Type)

	// clients on the "all" projection share one encoding of the full body
	var fullPayload json.RawMessage
	for _, m := range members {
		var (
			payload json.RawMessage
			err     error
		)
		if model.HasAll(m.fields) {
			if fullPayload == nil {
				fullPayload, err = encodePayload(restName, body)
			}
			payload = fullPayload
		} else {
			payload, err = encodePayload(restName, model.Project(body, m.fields))
		}
		if err != nil {
			d.logger.Error("event encoding failed",
				zap.String("type", n.Type), zap.String("uuid", n.UUID), zap.Error(err))
			continue
		}
		if d.enqueue(n.Type, m.queue, Event{Name: kind, Data: payload}) {
			d.measures.Events.WithLabelValues(n.Type, kind).Add(1.0)
		}
	}
	d.measures.Notifications.WithLabelValues(n.Type, DispatchedOutcome).Add(1.0)
}

func (d *Dispatcher) deliverDelete(n model.Notification, members []*membership) {
	payload, err := encodePayload(model.RESTName(n.Type), model.Object{model.FieldUUID: n.UUID})
	if err != nil {
		d.logger.Error("delete encoding failed", zap.String("uuid", n.UUID), zap.Error(err))
		return
	}
	for _, m := range members {
		if d.enqueue(n.Type, m.queue, Event{Name: model.OperationDelete.EventKind(), Data: payload}) {
			d.measures.Events.WithLabelValues(n.Type, model.OperationDelete.EventKind()).Add(1.0)
		}
	}
}

func (d *Dispatcher) deliverStop(resourceType string, members []*membership, cause error) {
	payload := StopPayload(cause)
	for _, m := range members {
		if d.enqueue(resourceType, m.queue, Event{Name: model.EventStop, Data: payload}) {
			d.measures.Events.WithLabelValues(resourceType, model.EventStop).Add(1.0)
		}
	}
}

// enqueue pushes one event and reports whether it was accepted. A closed
// queue means the client already disconnected and only needs its registry
// entries cleaned up; a full queue is a slow consumer and is evicted so it
// can never stall the loop.
func (d *Dispatcher) enqueue(resourceType string, q *Queue, event Event) bool {
	if q.Enqueue(event) {
		return true
	}
	if q.Closed() {
		d.registry.UnsubscribeAll(q)
		return false
	}
	d.logger.Warn("client queue overflow, disconnecting watcher",
		zap.String("queue", q.ID()),
		zap.String("type", resourceType),
	)
	d.measures.Overflows.WithLabelValues(resourceType).Add(1.0)
	// best effort: the buffer is likely still full
	q.Enqueue(Event{Name: model.EventStop, Data: StopPayload(errQueueOverflow)})
	d.registry.UnsubscribeAll(q)
	q.Close()
	return false
}

// readFields expands the watcher's union selection with the identity fields
// every projected event must carry. A detail sample reads the full body.
func readFields(s sample) []string {
	if s.detail {
		return nil
	}
	merged := make([]string, 0, len(s.fields)+4)
	seen := make(map[string]bool, len(s.fields)+4)
	for _, field := range append(model.IdentityFields(), s.fields...) {
		if !seen[field] {
			seen[field] = true
			merged = append(merged, field)
		}
	}
	return merged
}

func encodePayload(key string, body interface{}) (json.RawMessage, error) {
	return json.Marshal(map[string]interface{}{key: body})
}

// StopPayload encodes the terminal event body carried by a stop event.
func StopPayload(cause error) json.RawMessage {
	payload, err := json.Marshal(map[string]string{"error": cause.Error()})
	if err != nil {
		return json.RawMessage(`{"error":"unknown"}`)
	}
	return payload
}
