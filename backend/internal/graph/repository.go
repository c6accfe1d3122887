package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"mercury/backend/internal/constants"
	"mercury/backend/internal/social"
	"mercury/backend/pkg/config"
	apperrors "mercury/backend/pkg/errors"
	"mercury/backend/pkg/logger"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver    neo4j.DriverWithContext
	database  string
	indexName string
	logger    *zap.Logger
}

var _ social.Store = (*Repository)(nil)

// Option customises a Repository
type Option func(*Repository)

// WithDatabase selects a non-default Neo4j database
func WithDatabase(name string) Option {
	return func(r *Repository) { r.database = name }
}

// WithVectorIndex overrides the name of the user-name vector index
func WithVectorIndex(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.indexName = name
		}
	}
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext, opts ...Option) *Repository {
	r := &Repository{
		driver:    driver,
		indexName: constants.DefaultVectorIndex,
		logger:    logger.Named("graph"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect opens a pooled driver from configuration and verifies connectivity
func Connect(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	timeout := time.Duration(cfg.Neo4jTimeoutSeconds) * time.Second

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = cfg.Neo4jMaxPoolSize
			c.SocketConnectTimeout = timeout
		},
	)
	if err != nil {
		return nil, apperrors.NewStoreConnectionFailed(cfg.Neo4jURI, err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewStoreConnectionFailed(cfg.Neo4jURI, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

func (r *Repository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: r.database,
	})
}

// collect runs an auto-commit read and buffers every record
func (r *Repository) collect(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// count runs a read returning a single "total" column
func (r *Repository) count(ctx context.Context, query string, params map[string]any) (int64, error) {
	records, err := r.collect(ctx, query, params)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return getInt64FromRecord(records[0], "total"), nil
}

// write runs fn in a managed write transaction; the driver retries fn on
// transient failures.
func (r *Repository) write(ctx context.Context, fn func(tx neo4j.ManagedTransaction) error) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(tx)
	})
	return err
}

// exec runs a statement inside tx and discards its records
func exec(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) error {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// single runs a statement inside tx that yields exactly one record
func single(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (*neo4j.Record, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil, fmt.Errorf("expected one record: %w", err)
	}
	return record, nil
}
