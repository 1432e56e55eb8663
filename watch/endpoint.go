// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/xmidt-org/iris/dispatch"
)

// NewStatusHandler serves GET /watchers: a point-in-time listing of every
// watcher with its queue count and field union, for operators.
func NewStatusHandler(registry *dispatch.Registry) Handler {
	return kithttp.NewServer(
		newStatusEndpoint(registry),
		decodeStatusRequest,
		encodeStatusResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newStatusEndpoint(registry *dispatch.Registry) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return registry.Status(), nil
	}
}

func decodeStatusRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

func encodeStatusResponse(ctx context.Context, rw http.ResponseWriter, response interface{}) error {
	statuses := response.([]dispatch.WatcherStatus)
	data, err := json.Marshal(map[string]interface{}{"watchers": statuses})
	if err != nil {
		return err
	}
	rw.Header().Add("Content-Type", "application/json")
	rw.Write(data)
	return nil
}
