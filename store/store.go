// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"

	"github.com/xmidt-org/iris/model"
)

const (
	// TypeLabel is for labeling metrics; if there is a single metric for
	// successful queries, the typeLabel and corresponding type can be used
	// when incrementing the metric.
	TypeLabel = "type"
	ReadType  = "read"
	ListType  = "list"
	PingType  = "ping"
)

// Reader is the dispatcher's view of the configuration database. A
// notification only names an object; Reader materializes it.
//
// When fields is an explicit selection (no "all" sentinel, non-empty), the
// returned bodies are restricted to the identity fields plus the selection,
// with requested-but-absent fields carried as nulls. A nil or empty selection,
// or one containing "all", yields full detailed bodies.
//
// Read returns an error matching ErrNotFound when the uuid no longer exists.
// Failures worth a client retry unwrap to a TransientError; anything else is
// treated as fatal by callers. Implementations must be safe for concurrent
// use: live reads and snapshot listings overlap.
type Reader interface {
	Read(ctx context.Context, resourceType, uuid string, fields []string) (model.Object, error)
	List(ctx context.Context, resourceType string, fields []string) ([]model.Object, error)
}

// Restrict applies an explicit field selection to a full body, or returns the
// body as-is for an "all" selection. Backends that can only fetch whole
// objects use this to honor the Reader projection contract.
func Restrict(obj model.Object, fields []string) model.Object {
	if model.HasAll(fields) {
		return obj
	}
	return model.Project(obj, fields)
}
