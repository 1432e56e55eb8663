// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the requested object does not exist, typically
// because the read raced a delete. Since this error is returned wrapped, it
// is safest to check for it with errors.Is().
var ErrNotFound = errors.New("object not found")

// TransientError marks a backend failure that a reconnecting client is
// expected to recover from: timeouts, lost connections, overload. Any read
// failure that does not unwrap to a TransientError is fatal severity.
type TransientError struct {
	Err error
}

func (t TransientError) Error() string {
	return fmt.Sprintf("transient store failure: %v", t.Err)
}

func (t TransientError) Unwrap() error {
	return t.Err
}

// OperationError annotates a failed store operation with its subject so
// callers can log without rebuilding context.
type OperationError struct {
	Err       error
	Type      string
	UUID      string
	Operation string
}

func (o OperationError) Error() string {
	if o.UUID == "" {
		return fmt.Sprintf("%s %s: %v", o.Operation, o.Type, o.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", o.Operation, o.Type, o.UUID, o.Err)
}

func (o OperationError) Unwrap() error {
	return o.Err
}

// IsNotFound tells whether err reports a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient tells whether err reports a retryable backend failure.
func IsTransient(err error) bool {
	var t TransientError
	return errors.As(err, &t)
}
