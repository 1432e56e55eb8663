// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"sort"
	"sync"

	"github.com/xmidt-org/iris/model"
	"go.uber.org/zap"
)

// membership ties one queue to one watcher. fields is the exact contribution
// this queue made to the watcher's field multiset, so removal restores the
// prior counts. live stays false until the init snapshot for this type has
// been enqueued; the dispatcher never delivers to a non-live membership.
type membership struct {
	queue  *Queue
	fields []string
	live   bool
}

// watcher holds every queue subscribed to one resource type plus the multiset
// union of their field selections.
type watcher struct {
	memberships []*membership
	fields      map[string]int
}

func (w *watcher) find(id string) (int, *membership) {
	for i, m := range w.memberships {
		if m.queue.ID() == id {
			return i, m
		}
	}
	return -1, nil
}

// Registry maps resource types to their watchers. Handler goroutines mutate
// it on subscribe/unsubscribe; the dispatcher goroutine reads it on every
// notification. Entries persist once created, possibly with zero queues.
type Registry struct {
	mu       sync.RWMutex
	watchers map[string]*watcher
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		watchers: map[string]*watcher{},
		logger:   logger,
	}
}

// Subscribe adds the queue to the watcher of every named type, creating
// watchers as needed, and folds the queue's field selections into the
// multisets. Subscribing an already subscribed (queue, type) pair is a no-op.
func (r *Registry) Subscribe(q *Queue, types []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resourceType := range types {
		resourceType = model.WireName(resourceType)
		w, ok := r.watchers[resourceType]
		if !ok {
			w = &watcher{fields: map[string]int{}}
			r.watchers[resourceType] = w
		}
		if _, existing := w.find(q.ID()); existing != nil {
			continue
		}
		fields := q.FieldsFor(resourceType)
		w.memberships = append(w.memberships, &membership{queue: q, fields: fields})
		for _, field := range fields {
			w.fields[field]++
		}
		r.logger.Debug("subscribed",
			zap.String("queue", q.ID()),
			zap.String("type", resourceType),
			zap.Strings("fields", fields),
		)
	}
}

// Unsubscribe removes the queue from the watcher of every named type,
// subtracting exactly the field contribution recorded at subscribe time.
// Types the queue never watched are skipped silently; double unsubscribe is
// a no-op.
func (r *Registry) Unsubscribe(q *Queue, types []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resourceType := range types {
		resourceType = model.WireName(resourceType)
		w, ok := r.watchers[resourceType]
		if !ok {
			continue
		}
		i, m := w.find(q.ID())
		if m == nil {
			continue
		}
		w.memberships = append(w.memberships[:i], w.memberships[i+1:]...)
		for _, field := range m.fields {
			if w.fields[field]--; w.fields[field] <= 0 {
				delete(w.fields, field)
			}
		}
		r.logger.Debug("unsubscribed",
			zap.String("queue", q.ID()),
			zap.String("type", resourceType),
		)
	}
}

// UnsubscribeAll detaches the queue from every type in its descriptor.
func (r *Registry) UnsubscribeAll(q *Queue) {
	r.Unsubscribe(q, q.Types())
}

// MarkLive opens the delivery gate for one (queue, type) pair. Called by the
// snapshot path right after the init event lands on the queue.
func (r *Registry) MarkLive(q *Queue, resourceType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watchers[model.WireName(resourceType)]
	if !ok {
		return
	}
	if _, m := w.find(q.ID()); m != nil {
		m.live = true
	}
}

// sample captures the watcher state the dispatcher works from: a shallow copy
// of the live memberships and the field selection for the backend read. A nil
// field list with detail=true means some subscriber wants full bodies.
type sample struct {
	members []*membership
	fields  []string
	detail  bool
}

// sample returns ok=false when no queue is currently subscribed to the type,
// which is the dispatcher's no-read fast path.
func (r *Registry) sample(resourceType string) (sample, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.watchers[resourceType]
	if !ok || len(w.memberships) == 0 {
		return sample{}, false
	}

	s := sample{members: make([]*membership, 0, len(w.memberships))}
	for _, m := range w.memberships {
		if m.live {
			s.members = append(s.members, m)
		}
	}
	if len(s.members) == 0 {
		return sample{}, false
	}

	if _, all := w.fields[model.FieldAll]; all {
		s.detail = true
		return s, true
	}
	s.fields = make([]string, 0, len(w.fields))
	for field := range w.fields {
		s.fields = append(s.fields, field)
	}
	sort.Strings(s.fields)
	return s, true
}

// reintersect restricts a previously sampled membership set to queues still
// present and live in the current watcher. Queues added since the sample get
// nothing from this notification (their init covers it); queues removed since
// the sample are gone and must not be touched.
func (r *Registry) reintersect(resourceType string, sampled []*membership) []*membership {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.watchers[resourceType]
	if !ok {
		return nil
	}
	current := make(map[string]bool, len(w.memberships))
	for _, m := range w.memberships {
		if m.live {
			current[m.queue.ID()] = true
		}
	}
	result := make([]*membership, 0, len(sampled))
	for _, m := range sampled {
		if current[m.queue.ID()] {
			result = append(result, m)
		}
	}
	return result
}

// WatcherStatus is a point-in-time view of one watcher, for operators.
type WatcherStatus struct {
	ResourceType string   `json:"resource_type"`
	Queues       int      `json:"queues"`
	Fields       []string `json:"fields"`
}

// Status lists every watcher, including ones that currently have no queues.
func (r *Registry) Status() []WatcherStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	statuses := make([]WatcherStatus, 0, len(r.watchers))
	for resourceType, w := range r.watchers {
		fields := make([]string, 0, len(w.fields))
		for field := range w.fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		statuses = append(statuses, WatcherStatus{
			ResourceType: resourceType,
			Queues:       len(w.memberships),
			Fields:       fields,
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].ResourceType < statuses[j].ResourceType
	})
	return statuses
}

// fieldCounts exposes one watcher's multiset for tests and invariants checks.
func (r *Registry) fieldCounts(resourceType string) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.watchers[model.WireName(resourceType)]
	if !ok {
		return nil
	}
	counts := make(map[string]int, len(w.fields))
	for field, count := range w.fields {
		counts[field] = count
	}
	return counts
}
