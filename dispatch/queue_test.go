// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xmidt-org/iris/model"
)

func TestQueueDescriptor(t *testing.T) {
	assert := assert.New(t)
	q := NewQueue(map[string][]string{
		"virtual-network": {"name"},
		"logical_router":  nil,
	}, 4)

	assert.NotEmpty(q.ID())
	assert.ElementsMatch([]string{"virtual_network", "logical_router"}, q.Types())
	assert.Equal([]string{"name"}, q.FieldsFor("virtual_network"))
	// hyphen form resolves to the same projection
	assert.Equal([]string{"name"}, q.FieldsFor("virtual-network"))
	// silent descriptor entries default to full bodies
	assert.Equal([]string{model.FieldAll}, q.FieldsFor("logical_router"))
	assert.Equal([]string{model.FieldAll}, q.FieldsFor("never_subscribed"))
}

func TestQueueFIFO(t *testing.T) {
	assert := assert.New(t)
	q := NewQueue(nil, 4)
	assert.True(q.Enqueue(Event{Name: "create", Data: json.RawMessage(`1`)}))
	assert.True(q.Enqueue(Event{Name: "update", Data: json.RawMessage(`2`)}))

	events := drain(q)
	assert.Len(events, 2)
	assert.Equal("create", events[0].Name)
	assert.Equal("update", events[1].Name)
}

func TestQueueOverflow(t *testing.T) {
	assert := assert.New(t)
	q := NewQueue(nil, 2)
	assert.True(q.Enqueue(Event{Name: "create"}))
	assert.True(q.Enqueue(Event{Name: "update"}))
	// bound reached; producer must never block
	assert.False(q.Enqueue(Event{Name: "delete"}))
}

func TestQueueClose(t *testing.T) {
	assert := assert.New(t)
	q := NewQueue(nil, 2)
	assert.True(q.Enqueue(Event{Name: "create"}))
	q.Close()
	q.Close() // idempotent
	assert.False(q.Enqueue(Event{Name: "update"}))

	// buffered events survive the close
	event, ok := <-q.Events()
	assert.True(ok)
	assert.Equal("create", event.Name)
	_, ok = <-q.Events()
	assert.False(ok)
}

func TestQueueDefaultBound(t *testing.T) {
	q := NewQueue(nil, 0)
	assert.Equal(t, DefaultQueueBound, cap(q.ch))
}
