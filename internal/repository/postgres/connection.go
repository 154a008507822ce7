// Package postgres implements the session and quota repositories on
// pgx. Every counter mutation is a single SQL statement so concurrent
// generate calls from the same owner serialize at the row level.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds the shared pieces every repository needs.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds environment-prefixed table names so dev, test, and
// prod can share one database.
type TableNames struct {
	Sessions string
	Quotas   string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Sessions: fmt.Sprintf("%sgeneration_sessions", prefix),
		Quotas:   fmt.Sprintf("%squota_states", prefix),
	}
}

// CreateConnectionPool creates a pgx pool sized for a request/response
// service. When the URL points at a transaction pooler (port 6543) the
// exec mode drops to cache_describe, which does not create prepared
// statements the pooler would reject.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
