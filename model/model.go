// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import "strings"

// Operation is the kind of change carried by a bus notification.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// EventKind maps the operation to the event name delivered to watch clients.
func (o Operation) EventKind() string {
	return strings.ToLower(string(o))
}

// Valid tells whether the operation is one of the recognized change kinds.
func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Event names that do not correspond to a bus operation.
const (
	EventInit = "init"
	EventStop = "stop"
)

// Notification is the minimal change record published by the message bus:
// which object changed, how, and nothing else. The dispatcher materializes
// the rest through the object store.
type Notification struct {
	Type string    `json:"type"`
	Oper Operation `json:"oper"`
	UUID string    `json:"uuid"`
}

// Object is an untyped configuration object body as returned by the store.
type Object map[string]interface{}

// FieldAll is the projection sentinel requesting full object bodies.
const FieldAll = "all"

// Identity fields present in every projected event body regardless of the
// client's field selection.
const (
	FieldUUID       = "uuid"
	FieldFQName     = "fq_name"
	FieldParentType = "parent_type"
	FieldParentUUID = "parent_uuid"
)

// IdentityFields returns a fresh copy of the always-included field names.
func IdentityFields() []string {
	return []string{FieldUUID, FieldFQName, FieldParentType, FieldParentUUID}
}

// WireName normalizes a resource type to its internal underscore form.
// Clients and the bus are allowed to use either form.
func WireName(resourceType string) string {
	return strings.ReplaceAll(strings.TrimSpace(resourceType), "-", "_")
}

// RESTName converts a resource type to the hyphenated form used in event
// payload keys.
func RESTName(resourceType string) string {
	return strings.ReplaceAll(strings.TrimSpace(resourceType), "_", "-")
}

// CollectionName is the payload key for an init listing of a resource type.
func CollectionName(resourceType string) string {
	return RESTName(resourceType) + "s"
}

// Project builds the event body for a client with an explicit field list:
// the identity fields plus each requested field, with missing values carried
// as null rather than omitted.
func Project(obj Object, fields []string) Object {
	projected := make(Object, len(fields)+4)
	for _, field := range IdentityFields() {
		projected[field] = obj[field]
	}
	for _, field := range fields {
		if field == "" {
			continue
		}
		value, ok := obj[field]
		if !ok {
			projected[field] = nil
			continue
		}
		projected[field] = value
	}
	return projected
}

// HasAll reports whether a field selection requests full object bodies.
// An empty selection defaults to full bodies.
func HasAll(fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	for _, field := range fields {
		if field == FieldAll {
			return true
		}
	}
	return false
}
