// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/iris/model"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Read(ctx context.Context, resourceType, uuid string, fields []string) (model.Object, error) {
	args := m.Called(ctx, resourceType, uuid, fields)
	obj, _ := args.Get(0).(model.Object)
	return obj, args.Error(1)
}

func (m *mockReader) List(ctx context.Context, resourceType string, fields []string) ([]model.Object, error) {
	args := m.Called(ctx, resourceType, fields)
	objects, _ := args.Get(0).([]model.Object)
	return objects, args.Error(1)
}

func testMeasures() Measures {
	return Measures{
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: NotificationCounter}, []string{TypeLabel, OutcomeLabel}),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: EventCounter}, []string{TypeLabel, KindLabel}),
		IngressDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: IngressDropCounter}, []string{ReasonLabel}),
		Overflows: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: OverflowCounter}, []string{TypeLabel}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{Name: ClientGauge}),
	}
}

// drain pops every buffered event off a queue without waiting.
func drain(q *Queue) []Event {
	var events []Event
	for {
		select {
		case event, ok := <-q.Events():
			if !ok {
				return events
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func decodeData(t *testing.T, event Event) map[string]interface{} {
	t.Helper()
	data := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(event.Data, &data))
	return data
}
