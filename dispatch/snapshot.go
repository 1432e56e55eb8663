// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
	"go.uber.org/zap"
)

var errQueueOverflow = errors.New("queue overflow")

// Snapshotter delivers the one-time init event that catches a new watcher up
// with the current database contents before it sees live traffic.
type Snapshotter struct {
	registry    *Registry
	reader      store.Reader
	listTimeout time.Duration
	logger      *zap.Logger
}

func NewSnapshotter(registry *Registry, reader store.Reader, listTimeout time.Duration, logger *zap.Logger) *Snapshotter {
	if listTimeout <= 0 {
		listTimeout = DefaultReadTimeout
	}
	return &Snapshotter{
		registry:    registry,
		reader:      reader,
		listTimeout: listTimeout,
		logger:      logger,
	}
}

// SendInit lists the type with the subscriber's own field selection, enqueues
// exactly one init event, and only then opens the live-delivery gate for the
// (queue, type) pair. That gate order is what guarantees a client sees its
// init before any live event for the type.
//
// On any failure, listing or enqueue, the queue gets a best-effort stop event
// and the returned error tells the caller to tear the subscription down.
func (s *Snapshotter) SendInit(ctx context.Context, q *Queue, resourceType string) error {
	resourceType = model.WireName(resourceType)
	fields := q.FieldsFor(resourceType)
	if model.HasAll(fields) {
		// detailed listing
		fields = nil
	}

	listCtx, cancel := context.WithTimeout(ctx, s.listTimeout)
	objects, err := s.reader.List(listCtx, resourceType, fields)
	cancel()
	if err != nil {
		s.logger.Error("initial listing failed",
			zap.String("queue", q.ID()),
			zap.String("type", resourceType),
			zap.Error(err),
		)
		q.Enqueue(Event{Name: model.EventStop, Data: StopPayload(err)})
		return err
	}

	restName := model.RESTName(resourceType)
	listing := make([]model.Object, 0, len(objects))
	for _, obj := range objects {
		listing = append(listing, model.Object{restName: obj})
	}
	payload, err := json.Marshal(map[string]interface{}{
		model.CollectionName(resourceType): listing,
	})
	if err != nil {
		q.Enqueue(Event{Name: model.EventStop, Data: StopPayload(err)})
		return err
	}

	if !q.Enqueue(Event{Name: model.EventInit, Data: payload}) {
		// best effort: the buffer that refused the init is likely still full
		q.Enqueue(Event{Name: model.EventStop, Data: StopPayload(errQueueOverflow)})
		return errQueueOverflow
	}
	s.registry.MarkLive(q, resourceType)
	return nil
}
