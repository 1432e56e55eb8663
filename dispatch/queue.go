// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/xmidt-org/iris/model"
)

// DefaultQueueBound caps a client queue when no bound is configured.
const DefaultQueueBound = 1024

// Event is a single encoded message bound for one watch client. Data is
// serialized at enqueue time so every copy of the same notification shares
// identical bytes and socket writers never touch shared structures.
type Event struct {
	Name string
	Data json.RawMessage
}

// Queue is the bounded FIFO between the dispatcher and one watch connection.
// The dispatcher and the snapshot path produce; the connection's writer
// consumes. A queue also carries the client's subscription descriptor, which
// is immutable for the life of the connection.
type Queue struct {
	id    string
	query map[string][]string

	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewQueue builds a queue for a parsed subscription descriptor: resource type
// (either name form) to requested fields. A type mapped to nothing, or to a
// selection containing "all", receives full object bodies.
func NewQueue(query map[string][]string, bound int) *Queue {
	if bound <= 0 {
		bound = DefaultQueueBound
	}
	normalized := make(map[string][]string, len(query))
	for resourceType, fields := range query {
		normalized[model.WireName(resourceType)] = fields
	}
	return &Queue{
		id:    uuid.NewString(),
		query: normalized,
		ch:    make(chan Event, bound),
	}
}

// ID is the stable handle used for registry membership. Removal is id based
// so watcher bookkeeping never holds on to a dead connection by accident.
func (q *Queue) ID() string {
	return q.id
}

// Types lists the resource types this client subscribed to, in wire form.
func (q *Queue) Types() []string {
	types := make([]string, 0, len(q.query))
	for resourceType := range q.query {
		types = append(types, resourceType)
	}
	return types
}

// FieldsFor returns the client's projection for a resource type. The default
// when the descriptor is silent is the "all" sentinel.
func (q *Queue) FieldsFor(resourceType string) []string {
	fields, ok := q.query[model.WireName(resourceType)]
	if !ok || len(fields) == 0 {
		return []string{model.FieldAll}
	}
	return fields
}

// Enqueue appends without blocking. It reports false when the queue is full
// or already closed; a full queue is the caller's signal to disconnect the
// client.
func (q *Queue) Enqueue(event Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- event:
		return true
	default:
		return false
	}
}

// Closed reports whether Close has been called. Producers use it to tell a
// disconnected client apart from a slow one.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Events is the consumer side. The channel is closed by Close, after which
// any buffered events remain readable.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Close makes the queue permanently reject producers and releases the
// consumer. Safe to call more than once and concurrently with Enqueue.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
