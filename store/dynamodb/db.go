// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
	"github.com/xmidt-org/iris/store/db/metric"
)

const (
	defaultTable      = "objects"
	defaultMaxRetries = 3
)

type Config struct {
	Table      string
	Endpoint   string
	Region     string
	MaxRetries int
	AccessKey  string
	SecretKey  string
}

type Client struct {
	client   store.Reader
	config   Config
	measures metric.Measures
}

// NewDynamoDB builds a Reader backed by a dynamodb table keyed on
// (type, uuid) with the object body stored as a document attribute.
func NewDynamoDB(config Config, measures metric.Measures) (store.Reader, error) {
	validateConfig(&config)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(config.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	svc := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.RetryMaxAttempts = config.MaxRetries
	})

	return &Client{
		client:   &executor{c: svc, tableName: config.Table},
		config:   config,
		measures: measures,
	}, nil
}

func (s *Client) Read(ctx context.Context, resourceType, uuid string, fields []string) (model.Object, error) {
	start := time.Now()
	obj, err := s.client.Read(ctx, resourceType, uuid, fields)
	s.measures.QueryDuration.WithLabelValues(store.ReadType).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, noDataResponse) {
			return nil, store.OperationError{
				Err:       store.ErrNotFound,
				Type:      resourceType,
				UUID:      uuid,
				Operation: store.ReadType,
			}
		}
		s.measures.QueryFailureCount.WithLabelValues(store.ReadType).Add(1.0)
		return nil, store.OperationError{
			Err:       classify(err),
			Type:      resourceType,
			UUID:      uuid,
			Operation: store.ReadType,
		}
	}
	s.measures.QuerySuccessCount.WithLabelValues(store.ReadType).Add(1.0)
	return obj, nil
}

func (s *Client) List(ctx context.Context, resourceType string, fields []string) ([]model.Object, error) {
	start := time.Now()
	objects, err := s.client.List(ctx, resourceType, fields)
	s.measures.QueryDuration.WithLabelValues(store.ListType).Observe(time.Since(start).Seconds())
	if err != nil {
		s.measures.QueryFailureCount.WithLabelValues(store.ListType).Add(1.0)
		return nil, store.OperationError{
			Err:       classify(err),
			Type:      resourceType,
			Operation: store.ListType,
		}
	}
	s.measures.QuerySuccessCount.WithLabelValues(store.ListType).Add(1.0)
	return objects, nil
}

func classify(err error) error {
	if isTransient(err) {
		return store.TransientError{Err: err}
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	return errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal)
}

func validateConfig(config *Config) {
	if config.Table == "" {
		config.Table = defaultTable
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
}
