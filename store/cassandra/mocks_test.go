// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/iris/model"
)

type mockDB struct {
	mock.Mock
}

func (s *mockDB) Read(ctx context.Context, resourceType, uuid string, fields []string) (model.Object, error) {
	args := s.Called(ctx, resourceType, uuid, fields)
	obj, _ := args.Get(0).(model.Object)
	return obj, args.Error(1)
}

func (s *mockDB) List(ctx context.Context, resourceType string, fields []string) ([]model.Object, error) {
	args := s.Called(ctx, resourceType, fields)
	objects, _ := args.Get(0).([]model.Object)
	return objects, args.Error(1)
}

func (s *mockDB) Close() {
	s.Called()
}

func (s *mockDB) Ping() error {
	args := s.Called()
	return args.Error(0)
}
