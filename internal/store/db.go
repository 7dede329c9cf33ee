package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // Postgres driver

	apperrors "walrus-messaging-core/internal/errors"
)

// DB holds the shared connection pool. It is the only shared mutable
// resource the core touches directly (SPEC_FULL.md §5).
type DB struct {
	*sql.DB
}

// ConnectionConfig is the subset of config.DatabaseConfig the pool needs;
// kept separate from internal/config to avoid an import cycle.
type ConnectionConfig struct {
	DSN            string
	MaxConnections int
	ConnMaxIdle    time.Duration
	ConnMaxLife    time.Duration
}

// Connect opens the pool and verifies connectivity with a bounded number
// of retries, matching the teacher's startup resilience against a
// container that hasn't finished booting Postgres yet.
func Connect(cfg ConnectionConfig) (*DB, error) {
	if cfg.DSN == "" {
		return nil, apperrors.New(apperrors.KindInternal, "database DSN is required")
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 25
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns / 2)
	if cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
	}
	if cfg.ConnMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if lastErr = sqlDB.PingContext(ctx); lastErr == nil {
			break
		}
		slog.Warn("database connection attempt failed", "attempt", attempt, "error", lastErr)
		if attempt < 3 {
			time.Sleep(2 * time.Second)
		}
	}
	if lastErr != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect to database after retries: %w", lastErr)
	}

	return &DB{sqlDB}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// WithTransaction runs fn inside a transaction, rolling back on any
// error (including a panic, which is re-raised after rollback) and
// committing otherwise. Every transactional service operation in
// internal/auth and internal/chat goes through this helper.
func (db *DB) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
