// Package infrastructure provides database and connection pool setup.
//
// Repositories, the River maintenance-job client, and ad-hoc queries all
// share a single pgxpool.Pool (mirrors the teacher's ADR-0012 shared-pool
// discipline, minus the ent ORM layer: ent requires code generation this
// repository does not run, so XZepr talks to pgx directly).
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/config"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// DatabaseClients bundles the shared connection pool used by every
// repository and by the River maintenance-job client.
type DatabaseClients struct {
	// Pool is the shared connection pool.
	Pool *pgxpool.Pool
	// RiverClient runs the periodic maintenance jobs (authz cache eviction,
	// JWT blacklist pruning); nil until InitRiverClient is called.
	RiverClient *river.Client[pgx.Tx]
}

// NewDatabaseClients creates the shared connection pool.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	dsn := cfg.DSN()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute

	// Set UTC timezone on each new connection, matching the teacher's
	// AfterConnect hook; all stored timestamps are compared/ordered in UTC.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool created",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	return &DatabaseClients{Pool: pool}, nil
}

// Close closes the connection pool gracefully.
func (c *DatabaseClients) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// MigrateRiver applies River's own internal schema (job and queue tables),
// separate from Migrate's application schema. Dev/test use only, same as
// Migrate.
func (c *DatabaseClients) MigrateRiver(ctx context.Context) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(c.Pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("river migrate up: %w", err)
	}
	if len(res.Versions) > 0 {
		logger.Info("river migration completed", zap.Int("versions_applied", len(res.Versions)))
	}
	return nil
}

// InitRiverClient creates a River client running workers against the shared
// pool, with no queued job insertion from request handlers: XZepr only uses
// River for periodic maintenance jobs (spec.md §4.10, §5 JWT blacklist).
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, cfg config.RiverConfig) error {
	riverClient, err := river.NewClient(riverpgxv5.New(c.Pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:                     workers,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = riverClient
	logger.Info("river client initialized", zap.Int("max_workers", cfg.MaxWorkers))
	return nil
}

// schemaStatements holds the DDL the repositories rely on. Migration
// tooling and the migration-tracking scheme are out of scope (spec.md §1);
// this is only enough to let the bundled integration tests and a local
// docker-compose database stand up the tables the hand-written SQL queries
// address.
const schemaStatements = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL,
	provider_subject TEXT NOT NULL DEFAULT '',
	roles TEXT[] NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (provider, provider_subject)
);

CREATE TABLE IF NOT EXISTS event_receivers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	version TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	schema JSONB NOT NULL,
	fingerprint TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL REFERENCES users(id),
	resource_version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_receivers_owner ON event_receivers(owner_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	release TEXT NOT NULL DEFAULT '',
	platform_id TEXT NOT NULL DEFAULT '',
	package TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	payload JSONB NOT NULL,
	success BOOLEAN NOT NULL,
	event_receiver_id TEXT NOT NULL REFERENCES event_receivers(id),
	owner_id TEXT NOT NULL REFERENCES users(id),
	resource_version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_receiver_created ON events(event_receiver_id, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_events_owner ON events(owner_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS event_receiver_groups (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	version TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	enabled BOOLEAN NOT NULL DEFAULT true,
	event_receiver_ids TEXT[] NOT NULL DEFAULT '{}',
	owner_id TEXT NOT NULL REFERENCES users(id),
	resource_version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_groups_owner ON event_receiver_groups(owner_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS group_memberships (
	group_id TEXT NOT NULL REFERENCES event_receiver_groups(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id),
	added_by TEXT NOT NULL,
	added_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (group_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_memberships_user ON group_memberships(user_id);
`

// Migrate applies the hand-written DDL above. Only used in development and
// by local test setups; production deployments run migrations out-of-band
// (spec.md §1 names migration tooling as an external collaborator).
func (c *DatabaseClients) Migrate(ctx context.Context) error {
	_, err := c.Pool.Exec(ctx, schemaStatements)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
