package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // Use pgx via database/sql
	"github.com/jmoiron/sqlx"

	"github.com/vietddude/chainsink/internal/processing/metrics"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`

	// ChunkSizes overrides the number of rows per bulk upsert, per table.
	ChunkSizes map[string]int `yaml:"chunk_sizes"`
}

// DefaultChunkSize bounds rows per upsert statement when no per-table
// override is configured.
const DefaultChunkSize = 200

// ChunkSize returns the configured chunk size for a table.
func (c Config) ChunkSize(table string) int {
	if n, ok := c.ChunkSizes[table]; ok && n > 0 {
		return n
	}
	return DefaultChunkSize
}

// DB wraps the PostgreSQL connection and the shared write pool used by the
// chunked persistence engine. The pool is the only shared mutable resource
// across concurrent chunk writes.
type DB struct {
	*sqlx.DB
	cfg  Config
	pool pond.Pool
}

// NewDB creates a new database connection.
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pool configuration
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)

	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	} else {
		db.SetMaxIdleConns(2)
	}

	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:   db,
		cfg:  cfg,
		pool: pond.NewPool(maxConns),
	}, nil
}

// Close drains the write pool and closes the connection.
func (db *DB) Close() error {
	db.pool.StopAndWait()
	return db.DB.Close()
}

// StartMetricsCollector starts a background goroutine to collect DB metrics.
func (db *DB) StartMetricsCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := db.Stats()
				if stats.MaxOpenConnections > 0 {
					usage := float64(
						stats.OpenConnections,
					) / float64(
						stats.MaxOpenConnections,
					) * 100
					metrics.DBConnectionPoolUsage.Set(usage)
				}
			}
		}
	}()
}

// Health checks if the database is healthy.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
