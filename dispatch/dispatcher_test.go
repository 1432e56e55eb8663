// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
	"go.uber.org/zap"
)

func newTestDispatcher(reader store.Reader) (*Dispatcher, *Registry, *Ingress) {
	logger := zap.NewNop()
	measures := testMeasures()
	registry := NewRegistry(logger)
	ingress := NewIngress(16, logger, measures)
	d := NewDispatcher(ingress, registry, reader, time.Second, logger, measures)
	return d, registry, ingress
}

func subscribeLive(r *Registry, query map[string][]string, bound int) *Queue {
	q := NewQueue(query, bound)
	r.Subscribe(q, q.Types())
	for _, resourceType := range q.Types() {
		r.MarkLive(q, resourceType)
	}
	return q
}

func TestNoSubscribersSkipsRead(t *testing.T) {
	reader := new(mockReader)
	d, _, _ := newTestDispatcher(reader)

	d.dispatch(context.Background(), model.Notification{
		Type: "virtual_network", Oper: model.OperationCreate, UUID: "u1",
	})

	reader.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteShortcut(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	d, registry, _ := newTestDispatcher(reader)
	a := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 4)
	b := subscribeLive(registry, map[string][]string{"virtual_network": {"name"}}, 4)

	d.dispatch(context.Background(), model.Notification{
		Type: "virtual_network", Oper: model.OperationDelete, UUID: "u1",
	})

	reader.AssertNotCalled(t, "Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	for _, q := range []*Queue{a, b} {
		events := drain(q)
		require.Len(t, events, 1)
		assert.Equal("delete", events[0].Name)
		assert.Equal(map[string]interface{}{
			"virtual-network": map[string]interface{}{"uuid": "u1"},
		}, decodeData(t, events[0]))
	}
}

func TestCreateFullBody(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	body := model.Object{"uuid": "u2", "fq_name": []interface{}{"d", "p", "n2"}}
	reader.On("Read", mock.Anything, "virtual_network", "u2", []string(nil)).Return(body, nil)

	d, registry, _ := newTestDispatcher(reader)
	a := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 4)

	d.dispatch(context.Background(), model.Notification{
		Type: "virtual_network", Oper: model.OperationCreate, UUID: "u2",
	})

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal("create", events[0].Name)
	assert.Equal(map[string]interface{}{
		"virtual-network": map[string]interface{}{
			"uuid":    "u2",
			"fq_name": []interface{}{"d", "p", "n2"},
		},
	}, decodeData(t, events[0]))
}

func TestUpdateProjection(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	body := model.Object{
		"uuid":        "u1",
		"fq_name":     []interface{}{"d", "p", "n"},
		"name":        "n",
		"parent_type": "project",
		"parent_uuid": "p",
		"extra":       "x",
	}
	reader.On("Read", mock.Anything, "virtual_network", "u1", mock.Anything).Return(body, nil)

	d, registry, _ := newTestDispatcher(reader)
	b := subscribeLive(registry, map[string][]string{"virtual_network": {"name"}}, 4)

	d.dispatch(context.Background(), model.Notification{
		Type: "virtual_network", Oper: model.OperationUpdate, UUID: "u1",
	})

	events := drain(b)
	require.Len(t, events, 1)
	assert.Equal("update", events[0].Name)
	assert.Equal(map[string]interface{}{
		"virtual-network": map[string]interface{}{
			"uuid":        "u1",
			"fq_name":     []interface{}{"d", "p", "n"},
			"parent_type": "project",
			"parent_uuid": "p",
			"name":        "n",
		},
	}, decodeData(t, events[0]))
}

func TestReadRacesDelete(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	reader.On("Read", mock.Anything, "virtual_network", "u3", mock.Anything).
		Return(model.Object(nil), store.OperationError{
			Err: store.ErrNotFound, Type: "virtual_network", UUID: "u3", Operation: store.ReadType,
		})

	d, registry, _ := newTestDispatcher(reader)
	a := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 4)

	d.dispatch(context.Background(), model.Notification{
		Type: "virtual_network", Oper: model.OperationCreate, UUID: "u3",
	})

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal("delete", events[0].Name)
	assert.Equal(map[string]interface{}{
		"virtual-network": map[string]interface{}{"uuid": "u3"},
	}, decodeData(t, events[0]))
}

func TestTransientReadFailureStopsClients(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	reader.On("Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.Object(nil), store.TransientError{Err: errors.New("bus disconnect")})

	d, registry, _ := newTestDispatcher(reader)
	a := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 4)

	d.dispatch(context.Background(), model.Notification{
		Type: "virtual_network", Oper: model.OperationUpdate, UUID: "u1",
	})

	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal("stop", events[0].Name)
	data := decodeData(t, events[0])
	assert.Contains(data["error"], "bus disconnect")
}

func TestFieldUnionRead(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	body := model.Object{"uuid": "u1", "a": "va", "b": "vb"}
	reader.On("Read", mock.Anything, "virtual_network", "u1",
		mock.MatchedBy(func(fields []string) bool {
			want := map[string]bool{}
			for _, f := range fields {
				want[f] = true
			}
			return want["a"] && want["b"] && want["uuid"] && want["fq_name"] &&
				want["parent_type"] && want["parent_uuid"] && !want["all"]
		})).Return(body, nil)

	d, registry, _ := newTestDispatcher(reader)
	x := subscribeLive(registry, map[string][]string{"virtual_network": {"a"}}, 4)
	y := subscribeLive(registry, map[string][]string{"virtual_network": {"b"}}, 4)

	d.dispatch(context.Background(), model.Notification{
		Type: "virtual_network", Oper: model.OperationUpdate, UUID: "u1",
	})

	reader.AssertExpectations(t)

	xEvents := drain(x)
	require.Len(t, xEvents, 1)
	xData := decodeData(t, xEvents[0])["virtual-network"].(map[string]interface{})
	assert.Equal("va", xData["a"])
	_, leaked := xData["b"]
	assert.False(leaked)

	yEvents := drain(y)
	require.Len(t, yEvents, 1)
	yData := decodeData(t, yEvents[0])["virtual-network"].(map[string]interface{})
	assert.Equal("vb", yData["b"])
	_, leaked = yData["a"]
	assert.False(leaked)
}

func TestSlowClientEvicted(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	reader.On("Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.Object{"uuid": "u1"}, nil)

	d, registry, _ := newTestDispatcher(reader)
	slow := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 1)
	healthy := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 8)

	notification := model.Notification{Type: "virtual_network", Oper: model.OperationUpdate, UUID: "u1"}
	d.dispatch(context.Background(), notification) // fills slow's queue
	d.dispatch(context.Background(), notification) // overflows it

	// the evicted queue is unsubscribed and closed; its buffered event
	// remains readable, then the channel reports closed
	assert.Equal(map[string]int{"all": 1}, registry.fieldCounts("virtual_network"))
	buffered := drain(slow)
	require.Len(t, buffered, 1)
	assert.Equal("update", buffered[0].Name)
	_, open := <-slow.Events()
	assert.False(open)

	// the healthy client keeps receiving without loss
	d.dispatch(context.Background(), notification)
	assert.Len(drain(healthy), 3)

	// only delivered events are counted: two on the first dispatch, one each
	// for the two that overflowed or followed the eviction
	assert.Equal(4.0,
		testutil.ToFloat64(d.measures.Events.WithLabelValues("virtual_network", "update")))
	assert.Equal(1.0,
		testutil.ToFloat64(d.measures.Overflows.WithLabelValues("virtual_network")))
}

func TestClosedQueueNotTreatedAsOverflow(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	reader.On("Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.Object{"uuid": "u1"}, nil)

	d, registry, _ := newTestDispatcher(reader)
	gone := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 8)
	healthy := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 8)

	// the client disconnected but its registry entries are still present
	gone.Close()

	notification := model.Notification{Type: "virtual_network", Oper: model.OperationUpdate, UUID: "u1"}
	d.dispatch(context.Background(), notification)

	// a closed queue is cleaned up quietly, not reported as an overflow
	assert.Equal(0.0,
		testutil.ToFloat64(d.measures.Overflows.WithLabelValues("virtual_network")))
	assert.Equal(1.0,
		testutil.ToFloat64(d.measures.Events.WithLabelValues("virtual_network", "update")))
	assert.Equal(map[string]int{"all": 1}, registry.fieldCounts("virtual_network"))
	assert.Len(drain(healthy), 1)
}

func TestRunDrainsOnIngressClose(t *testing.T) {
	reader := new(mockReader)
	reader.On("Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.Object{"uuid": "u1"}, nil)

	d, registry, ingress := newTestDispatcher(reader)
	a := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 8)

	for i := 0; i < 3; i++ {
		ingress.Notify(model.Notification{Type: "virtual_network", Oper: model.OperationUpdate, UUID: "u1"})
	}
	ingress.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not drain after ingress close")
	}
	assert.Len(t, drain(a), 3)
}

func TestPerTypeOrderingPreserved(t *testing.T) {
	assert := assert.New(t)
	reader := new(mockReader)
	reader.On("Read", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(model.Object{"uuid": "u1"}, nil)

	d, registry, _ := newTestDispatcher(reader)
	a := subscribeLive(registry, map[string][]string{"virtual_network": nil}, 8)

	sequence := []model.Operation{
		model.OperationCreate, model.OperationUpdate,
		model.OperationUpdate, model.OperationDelete,
	}
	for _, oper := range sequence {
		d.dispatch(context.Background(), model.Notification{
			Type: "virtual_network", Oper: oper, UUID: "u1",
		})
	}

	events := drain(a)
	require.Len(t, events, len(sequence))
	for i, oper := range sequence {
		assert.Equal(oper.EventKind(), events[i].Name)
	}
}
