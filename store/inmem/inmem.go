// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
)

type InMem struct {
	lock sync.RWMutex
	data map[string]map[string]model.Object
}

func NewInMem() *InMem {
	return &InMem{
		data: map[string]map[string]model.Object{},
	}
}

// Put stores a full object body. It is the seeding side of this backend;
// production deployments get their contents from a real database.
func (i *InMem) Put(resourceType, uuid string, obj model.Object) {
	i.lock.Lock()
	defer i.lock.Unlock()
	resourceType = model.WireName(resourceType)
	if i.data[resourceType] == nil {
		i.data[resourceType] = map[string]model.Object{}
	}
	i.data[resourceType][uuid] = copyObject(obj)
}

func (i *InMem) Remove(resourceType, uuid string) {
	i.lock.Lock()
	defer i.lock.Unlock()
	resourceType = model.WireName(resourceType)
	objects := i.data[resourceType]
	delete(objects, uuid)
	if len(objects) == 0 {
		delete(i.data, resourceType)
	}
}

func (i *InMem) Read(_ context.Context, resourceType, uuid string, fields []string) (model.Object, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	obj, ok := i.data[model.WireName(resourceType)][uuid]
	if !ok {
		return nil, store.OperationError{
			Err:       store.ErrNotFound,
			Type:      resourceType,
			UUID:      uuid,
			Operation: store.ReadType,
		}
	}
	return store.Restrict(copyObject(obj), fields), nil
}

func (i *InMem) List(_ context.Context, resourceType string, fields []string) ([]model.Object, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	objects := i.data[model.WireName(resourceType)]
	uuids := make([]string, 0, len(objects))
	for uuid := range objects {
		uuids = append(uuids, uuid)
	}
	// deterministic listings keep init payloads stable
	sort.Strings(uuids)
	result := make([]model.Object, 0, len(objects))
	for _, uuid := range uuids {
		result = append(result, store.Restrict(copyObject(objects[uuid]), fields))
	}
	return result, nil
}

func copyObject(obj model.Object) model.Object {
	duplicate := make(model.Object, len(obj))
	for k, v := range obj {
		duplicate[k] = v
	}
	return duplicate
}
