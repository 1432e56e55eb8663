// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"
	"time"

	"emperror.dev/emperror"
	"github.com/gocql/gocql"
	"github.com/xmidt-org/iris/model"
	"github.com/xmidt-org/iris/store"
	"github.com/xmidt-org/iris/store/db/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultOpTimeout             = time.Duration(10) * time.Second
	defaultDatabase              = "iris"
	defaultTable                 = "objects"
	defaultNumRetries            = 0
	defaultWaitTimeMult          = 1
	defaultMaxNumberConnsPerHost = 2
)

type Config struct {
	// Hosts to connect to. Must have at least one
	Hosts []string

	// Database aka Keyspace for cassandra
	Database string

	// Table holding the configuration objects
	Table string

	// OpTimeout
	OpTimeout time.Duration

	// SSLRootCert used for enabling tls to the cluster. SSLKey, and SSLCert must also be set.
	SSLRootCert string
	// SSLKey used for enabling tls to the cluster. SSLRootCert, and SSLCert must also be set.
	SSLKey string
	// SSLCert used for enabling tls to the cluster. SSLRootCert, and SSLRootCert must also be set.
	SSLCert string
	// If you want to verify the hostname and server cert (like a wildcard for cass cluster) then you should turn this on
	// This option is basically the inverse of InSecureSkipVerify
	// See InSecureSkipVerify in http://golang.org/pkg/crypto/tls/ for more info
	EnableHostVerification bool

	// Username to authenticate into the cluster. Password must also be provided.
	Username string
	// Password to authenticate into the cluster. Username must also be provided.
	Password string

	// NumRetries for connecting to the db
	NumRetries int

	// WaitTimeMult the amount of time to wait before retrying to connect to the db
	WaitTimeMult time.Duration

	// MaxConnsPerHost max number of connections per host
	MaxConnsPerHost int
}

type Client struct {
	client   dbReader
	config   Config
	logger   *zap.Logger
	measures metric.Measures
}

// NewCassandra connects to the cluster and hands back a Reader that maps
// gocql failures onto the store error taxonomy.
func NewCassandra(config Config, measures metric.Measures, lc fx.Lifecycle, logger *zap.Logger) (store.Reader, error) {
	client, err := createClient(config, measures, logger)
	if err != nil {
		return nil, err
	}
	ticker := doEvery(time.Second*5, func(_ time.Time) {
		if err := client.Ping(); err != nil {
			logger.Error("ping failed", zap.Error(err))
		}
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			ticker.Stop()
			client.Close()
			return nil
		},
	})
	return client, nil
}

func doEvery(d time.Duration, f func(time.Time)) *time.Ticker {
	ticker := time.NewTicker(d)
	go func() {
		for x := range ticker.C {
			f(x)
		}
	}()
	return ticker
}

func createClient(config Config, measures metric.Measures, logger *zap.Logger) (*Client, error) {
	if len(config.Hosts) == 0 {
		return nil, errors.New("number of hosts must be > 0")
	}

	validateConfig(&config)

	clusterConfig := gocql.NewCluster(config.Hosts...)
	clusterConfig.Consistency = gocql.LocalQuorum
	clusterConfig.Keyspace = config.Database
	clusterConfig.Timeout = config.OpTimeout
	clusterConfig.NumConns = config.MaxConnsPerHost
	// let retry package handle it
	clusterConfig.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: 1}
	// setup ssl
	if config.SSLRootCert != "" && config.SSLCert != "" && config.SSLKey != "" {
		clusterConfig.SslOpts = &gocql.SslOptions{
			CertPath:               config.SSLCert,
			KeyPath:                config.SSLKey,
			CaPath:                 config.SSLRootCert,
			EnableHostVerification: config.EnableHostVerification,
		}
	}
	// setup authentication
	if config.Username != "" && config.Password != "" {
		clusterConfig.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	session, err := connect(clusterConfig, config.Table, logger)

	// retry if it fails
	waitTime := 1 * time.Second
	for attempt := 0; attempt < config.NumRetries && err != nil; attempt++ {
		time.Sleep(waitTime)
		session, err = connect(clusterConfig, config.Table, logger)
		waitTime = waitTime * config.WaitTimeMult
	}
	if err != nil {
		return nil, emperror.WrapWith(err, "Connecting to database failed", "hosts", config.Hosts)
	}

	return &Client{
		client:   session,
		config:   config,
		logger:   logger,
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

func (s *Client) Close() {
	s.client.Close()
}

// Ping is for pinging the database to verify that the connection is still good.
func (s *Client) Ping() error {
	err := s.client.Ping()
	if err != nil {
		s.measures.QueryFailureCount.WithLabelValues(store.PingType).Add(1.0)
		return emperror.Wrap(err, "Pinging connection failed")
	}
	s.measures.QuerySuccessCount.WithLabelValues(store.PingType).Add(1.0)
	return nil
}

// classify sorts gocql failures into the retryable bucket. Clients that get a
// stop event for a transient failure reconnect; anything else pages someone.
func classify(err error) error {
	if isTransient(err) {
		return store.TransientError{Err: err}
	}
	return err
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gocql.ErrTimeoutNoResponse),
		errors.Is(err, gocql.ErrConnectionClosed),
		errors.Is(err, gocql.ErrNoConnections),
		errors.Is(err, gocql.ErrSessionClosed):
		return true
	}
	var requestErr gocql.RequestError
	return errors.As(err, &requestErr)
}

func validateConfig(config *Config) {
	zeroDuration := time.Duration(0) * time.Second

	if config.OpTimeout == zeroDuration {
		config.OpTimeout = defaultOpTimeout
	}
	if config.Database == "" {
		config.Database = defaultDatabase
	}
	if config.Table == "" {
		config.Table = defaultTable
	}
	if config.NumRetries < 0 {
		config.NumRetries = defaultNumRetries
	}
	if config.WaitTimeMult < 1 {
		config.WaitTimeMult = defaultWaitTimeMult
	}
	if config.MaxConnsPerHost <= 0 {
		config.MaxConnsPerHost = defaultMaxNumberConnsPerHost
	}
}
