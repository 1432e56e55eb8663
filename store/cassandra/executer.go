// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gocql/gocql"
	"github.com/hailocab/go-hostpool"
	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
	"go.uber.org/zap"
)

type dbReader interface {
	store.Reader
	Close()
	Ping() error
}

var (
	noDataResponse = errors.New("no data from query")
	serverClosed   = errors.New("server is closed")
)

type cassandraExecutor struct {
	session *gocql.Session
	table   string
	logger  *zap.Logger
}

func connect(clusterConfig *gocql.ClusterConfig, table string, logger *zap.Logger) (dbReader, error) {
	clusterConfig.PoolConfig.HostSelectionPolicy = gocql.HostPoolHostPolicy(hostpool.New(nil))
	session, err := clusterConfig.CreateSession()
	if err != nil {
		return nil, err
	}

	return &cassandraExecutor{session: session, table: table, logger: logger}, nil
}

func (s *cassandraExecutor) Read(ctx context.Context, resourceType, uuid string, fields []string) (model.Object, error) {
	var data []byte
	iter := s.session.Query("SELECT body FROM "+s.table+" WHERE type = ? AND uuid = ?",
		model.WireName(resourceType), uuid).WithContext(ctx).Iter()
	defer func() {
		err := iter.Close()
		if err != nil {
			s.logger.Error("failed to close iter", zap.String("type", resourceType), zap.String("uuid", uuid))
		}
	}()
	for iter.Scan(&data) {
		obj := model.Object{}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return store.Restrict(obj, fields), nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return nil, noDataResponse
}

func (s *cassandraExecutor) List(ctx context.Context, resourceType string, fields []string) ([]model.Object, error) {
	result := []model.Object{}
	var (
		uuid string
		data []byte
	)
	iter := s.session.Query("SELECT uuid, body FROM "+s.table+" WHERE type = ?",
		model.WireName(resourceType)).WithContext(ctx).Iter()
	for iter.Scan(&uuid, &data) {
		obj := model.Object{}
		if err := json.Unmarshal(data, &obj); err != nil {
			s.logger.Error("failed to unmarshal body",
				zap.String("type", resourceType), zap.String("uuid", uuid))
			data = []byte{}
			uuid = ""
			continue
		}
		result = append(result, store.Restrict(obj, fields))
		data = []byte{}
		uuid = ""
	}
	err := iter.Close()
	return result, err
}

func (s *cassandraExecutor) Close() {
	s.session.Close()
}

func (s *cassandraExecutor) Ping() error {
	if s.session.Closed() {
		return serverClosed
	}
	return nil
}
