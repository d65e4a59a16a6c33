// Package postgres implements the relational auction index on
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
)

// Database holds the PostgreSQL connection and serves the repositories.
type Database struct {
	db     *sql.DB
	config *relationaldb.Config
}

// NewDatabase creates a new PostgreSQL database instance.
func NewDatabase(config *relationaldb.Config) (*Database, error) {
	if err := config.Validate(); err != nil {
		return nil, relationaldb.NewConfigurationError("new_database", "invalid configuration", err)
	}
	return &Database{config: config}, nil
}

// Open opens the database connection and initializes the schema.
func (d *Database) Open(ctx context.Context) error {
	connStr, err := d.config.BuildConnectionString()
	if err != nil {
		return relationaldb.NewConfigurationError("open", "failed to build connection string", err)
	}

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return relationaldb.NewConnectionError("open", "failed to open database connection", err)
	}

	sqlDB.SetMaxOpenConns(d.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(d.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(d.config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, d.config.DefaultTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return relationaldb.NewConnectionError("open", "failed to ping database", err)
	}

	d.db = sqlDB

	if err := d.initSchema(ctx); err != nil {
		d.db.Close()
		d.db = nil
		return relationaldb.NewSchemaError("open", "failed to initialize schema", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close(ctx context.Context) error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil

	if err != nil {
		return relationaldb.NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// Ping tests the database connection.
func (d *Database) Ping(ctx context.Context) error {
	if d.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.DefaultTimeout)
	defer cancel()

	if err := d.db.PingContext(ctx); err != nil {
		return relationaldb.NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// initSchema creates the auction and event tables.
func (d *Database) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS auctions (
			id BIGINT PRIMARY KEY,
			seller VARCHAR(64) NOT NULL,
			sell_asset VARCHAR(64) NOT NULL,
			buy_asset VARCHAR(64) NOT NULL,
			sell_amount BIGINT NOT NULL,
			start_price BIGINT NOT NULL,
			start_time TIMESTAMP WITH TIME ZONE NOT NULL,
			duration_secs BIGINT NOT NULL,
			decrease_rate BIGINT NOT NULL,
			outcome VARCHAR(16) NOT NULL DEFAULT 'pending',
			buyer VARCHAR(64),
			final_price BIGINT,
			settled_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS auction_events (
			seq BIGINT PRIMARY KEY,
			auction_id BIGINT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
			payload BYTEA,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_auctions_seller ON auctions(seller)`,
		`CREATE INDEX IF NOT EXISTS idx_auctions_outcome ON auctions(outcome)`,
		`CREATE INDEX IF NOT EXISTS idx_auction_events_auction ON auction_events(auction_id, seq)`,
	}

	for _, query := range queries {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}
