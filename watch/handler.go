// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/xmidt-org/iris/dispatch"
	"github.com/xmidt-org/iris/model"
	"go.uber.org/zap"
)

type Handler http.Handler

// StreamHandler terminates GET /watch. Each accepted connection gets one
// client queue: the handler subscribes it, lets the snapshot service enqueue
// the per-type init events, then pumps queue events onto the socket in
// server-sent-events framing until the stream ends. The queue and its
// registry memberships live exactly as long as the connection.
type StreamHandler struct {
	registry    *dispatch.Registry
	snapshotter *dispatch.Snapshotter
	config      dispatch.Config
	logger      *zap.Logger
	measures    dispatch.Measures
}

func NewStreamHandler(registry *dispatch.Registry, snapshotter *dispatch.Snapshotter,
	config dispatch.Config, logger *zap.Logger, measures dispatch.Measures) *StreamHandler {
	return &StreamHandler{
		registry:    registry,
		snapshotter: snapshotter,
		config:      config,
		logger:      logger,
		measures:    measures,
	}
}

func (sh *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query, err := decodeSubscription(r)
	if err != nil {
		// nothing was attached to the registry, a plain 400 is enough
		encodeError(r.Context(), err, w)
		return
	}

	controller := http.NewResponseController(w)

	q := dispatch.NewQueue(query, sh.config.QueueBound)
	sh.registry.Subscribe(q, q.Types())
	defer func() {
		sh.registry.UnsubscribeAll(q)
		q.Close()
	}()

	sh.measures.Clients.Add(1.0)
	defer sh.measures.Clients.Add(-1.0)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	logger := sh.logger.With(zap.String("queue", q.ID()))
	logger.Info("watch stream opened", zap.Strings("types", sortedTypes(q)))

	// deterministic init order. A failed snapshot enqueues a stop when it
	// fits; closing the queue lets the write loop below drain whatever is
	// buffered and terminate the stream either way.
	for _, resourceType := range sortedTypes(q) {
		if err := sh.snapshotter.SendInit(r.Context(), q, resourceType); err != nil {
			q.Close()
			break
		}
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stream closed by client")
			return
		case event, ok := <-q.Events():
			if !ok {
				// dispatcher evicted the queue on overflow
				logger.Info("watch stream closed after queue teardown")
				return
			}
			if err := sh.writeEvent(controller, w, event); err != nil {
				logger.Info("watch stream write failed", zap.Error(err))
				return
			}
			if event.Name == model.EventStop {
				logger.Info("watch stream stopped")
				return
			}
		}
	}
}

func (sh *StreamHandler) writeEvent(controller *http.ResponseController,
	w http.ResponseWriter, event dispatch.Event) error {
	if err := controller.SetWriteDeadline(time.Now().Add(sh.config.WriteTimeout)); err != nil &&
		!errIsUnsupported(err) {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, event.Data); err != nil {
		return err
	}
	return controller.Flush()
}

func errIsUnsupported(err error) bool {
	return errors.Is(err, http.ErrNotSupported)
}

func sortedTypes(q *dispatch.Queue) []string {
	types := q.Types()
	sort.Strings(types)
	return types
}
