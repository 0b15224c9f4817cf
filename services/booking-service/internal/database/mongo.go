package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"golang.org/x/sync/singleflight"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/config"
)

// DialFunc opens a client for the given configuration.
type DialFunc func(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error)

// Connector hands out one shared MongoDB client per process.
// Concurrent first callers wait on the same connection attempt; a failed attempt is not
// cached, so the next caller dials again.
type Connector struct {
	cfg    config.MongoConfig
	logger *zerolog.Logger
	dial   DialFunc

	group  singleflight.Group
	mu     sync.RWMutex
	client *mongo.Client
}

// NewConnector creates a Connector that dials with Dial.
func NewConnector(cfg config.MongoConfig, logger *zerolog.Logger) *Connector {
	return NewConnectorWithDialer(cfg, logger, Dial)
}

func NewConnectorWithDialer(cfg config.MongoConfig, logger *zerolog.Logger, dial DialFunc) *Connector {
	return &Connector{
		cfg:    cfg,
		logger: logger,
		dial:   dial,
	}
}

// Dial connects to MongoDB and verifies the primary is reachable.
func Dial(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, nil
}

// Client returns the shared client, connecting on first use.
func (c *Connector) Client(ctx context.Context) (*mongo.Client, error) {
	if client := c.cached(); client != nil {
		return client, nil
	}

	v, err, shared := c.group.Do("connect", func() (any, error) {
		if client := c.cached(); client != nil {
			return client, nil
		}

		client, err := c.dial(ctx, c.cfg)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.client = client
		c.mu.Unlock()

		c.logger.Info().Str("database", c.cfg.Database).Msg("connected to mongodb")

		return client, nil
	})
	if err != nil {
		c.logger.Error().Err(err).Bool("shared", shared).Msg("failed to connect to mongodb")
		return nil, err
	}

	return v.(*mongo.Client), nil
}

// Database returns the configured database on the shared client.
func (c *Connector) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := c.Client(ctx)
	if err != nil {
		return nil, err
	}

	return client.Database(c.cfg.Database), nil
}

// Ping checks that the database answers. It does not connect if no client exists yet.
func (c *Connector) Ping(ctx context.Context) error {
	client := c.cached()
	if client == nil {
		return fmt.Errorf("mongodb client is not connected")
	}

	return client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the shared client if one was opened.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client == nil {
		return nil
	}

	return client.Disconnect(ctx)
}

func (c *Connector) cached() *mongo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client
}
