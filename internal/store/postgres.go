package store

import (
	"context"
	"database/sql"
)

// PostgresStore is the production Store, backed by the shared connection
// pool in DB. Non-transactional calls run directly against the pool;
// WithTransaction hands the callback a Store bound to a single *sql.Tx so
// the multi-step operations in internal/auth and internal/chat (invite,
// login, refresh, private-chat creation) stay atomic.
type PostgresStore struct {
	sqlStore
	db *DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an already-connected DB pool.
func NewPostgresStore(db *DB) *PostgresStore {
	return &PostgresStore{sqlStore: sqlStore{q: db.DB}, db: db}
}

func (p *PostgresStore) WithTransaction(ctx context.Context, fn func(Store) error) error {
	return p.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&sqlStore{q: tx})
	})
}
