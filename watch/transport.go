// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/xmidt-org/iris/model"
)

// request URL query keys
const (
	ResourceTypesParam = "resource_types"
	ProjectionParam    = "projection"
)

// Response Headers
const (
	ErrorHeaderKey = "X-Iris-Error"
)

// BadRequestErr rejects a malformed subscription before any queue is
// attached to the registry.
type BadRequestErr struct {
	Message string
}

func (bre BadRequestErr) Error() string {
	return bre.Message
}

func (bre BadRequestErr) StatusCode() int {
	return http.StatusBadRequest
}

// name and field constraints on descriptor input
const (
	typeValidationTag  = "required,printascii,max=128"
	fieldValidationTag = "required,printascii,max=256"
)

var descriptorValidator = validator.New()

// decodeSubscription parses GET /watch query parameters into the queue
// descriptor: resource type (wire form) to requested fields. resource_types
// is a comma separated list; projection is an optional JSON object keyed by
// resource type whose values are field lists, bare or wrapped as
// {"fields": [...]}. Types may be given in hyphen or underscore form.
func decodeSubscription(r *http.Request) (map[string][]string, error) {
	raw := r.URL.Query().Get(ResourceTypesParam)
	if strings.TrimSpace(raw) == "" {
		return nil, BadRequestErr{Message: "resource_types query parameter missing"}
	}

	query := map[string][]string{}
	for _, resourceType := range strings.Split(raw, ",") {
		resourceType = strings.TrimSpace(resourceType)
		if err := descriptorValidator.Var(resourceType, typeValidationTag); err != nil {
			return nil, BadRequestErr{Message: "invalid resource type"}
		}
		query[model.WireName(resourceType)] = nil
	}

	projection := r.URL.Query().Get(ProjectionParam)
	if projection == "" {
		return query, nil
	}

	var selections map[string]interface{}
	if err := json.Unmarshal([]byte(projection), &selections); err != nil {
		return nil, BadRequestErr{Message: "projection must be a JSON object"}
	}
	for resourceType, value := range selections {
		wireName := model.WireName(resourceType)
		if _, subscribed := query[wireName]; !subscribed {
			return nil, BadRequestErr{Message: "projection references an unsubscribed type"}
		}
		fields, err := projectionFields(value)
		if err != nil {
			return nil, err
		}
		for _, field := range fields {
			if err := descriptorValidator.Var(field, fieldValidationTag); err != nil {
				return nil, BadRequestErr{Message: "invalid field name"}
			}
		}
		query[wireName] = fields
	}
	return query, nil
}

// projectionFields accepts either a bare field list or the wrapped
// {"fields": [...]} form. A lone string stands in for a one element list
// either way.
func projectionFields(value interface{}) ([]string, error) {
	if wrapper, ok := value.(map[string]interface{}); ok {
		inner, ok := wrapper["fields"]
		if !ok {
			return nil, BadRequestErr{Message: "projection object must carry fields"}
		}
		value = inner
	}
	switch value.(type) {
	case string, []string, []interface{}:
	default:
		return nil, BadRequestErr{Message: "projection values must be field lists"}
	}
	fields, err := cast.ToStringSliceE(value)
	if err != nil {
		return nil, BadRequestErr{Message: "projection values must be field lists"}
	}
	return fields, nil
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	w.Header().Set(ErrorHeaderKey, err.Error())
	code := http.StatusInternalServerError
	if sc, ok := err.(kithttp.StatusCoder); ok {
		code = sc.StatusCode()
	}
	w.WriteHeader(code)
}
