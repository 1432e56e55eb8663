// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/iris/store"
	"github.com/xmidt-org/iris/store/cassandra"
	"github.com/xmidt-org/iris/store/db/metric"
	"github.com/xmidt-org/iris/store/dynamodb"
	"github.com/xmidt-org/iris/store/inmem"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config keys selecting the object store backend.
const (
	CassandraKey = "cassandra"
	DynamoDBKey  = "dynamo"
)

type Configs struct {
	Dynamo    *dynamodb.Config
	Cassandra *cassandra.Config
}

type SetupIn struct {
	fx.In
	Configs  Configs
	Measures metric.Measures
	LC       fx.Lifecycle
	Logger   *zap.Logger
}

func Provide() fx.Option {
	return fx.Options(
		metric.ProvideMetrics(),
		fx.Provide(
			unmarshalConfigs,
			SetupReader,
		),
	)
}

func unmarshalConfigs(v *viper.Viper) (Configs, error) {
	var configs Configs
	if v.IsSet(DynamoDBKey) {
		var config dynamodb.Config
		if err := v.UnmarshalKey(DynamoDBKey, &config); err != nil {
			return Configs{}, err
		}
		configs.Dynamo = &config
	}
	if v.IsSet(CassandraKey) {
		var config cassandra.Config
		if err := v.UnmarshalKey(CassandraKey, &config); err != nil {
			return Configs{}, err
		}
		configs.Cassandra = &config
	}
	return configs, nil
}

func SetupReader(in SetupIn) (store.Reader, error) {
	if in.Configs.Dynamo != nil {
		in.Logger.Info("using dynamodb object store")
		return dynamodb.NewDynamoDB(*in.Configs.Dynamo, in.Measures)
	}
	if in.Configs.Cassandra != nil {
		in.Logger.Info("using cassandra object store")
		return cassandra.NewCassandra(*in.Configs.Cassandra, in.Measures, in.LC,
			in.Logger)
	}
	in.Logger.Info("using in memory object store")
	return inmem.NewInMem(), nil
}
