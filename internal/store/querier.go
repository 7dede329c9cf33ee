package store

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB and *sql.Tx that the query methods in
// this package need. Every method below is written against a Querier so
// it runs identically whether it's auto-committing against the pool or
// running inside a transaction opened by PostgresStore.WithTransaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// sqlStore implements CredentialStore, SessionStore and ChatStore against
// a Querier. It carries no connection-management concerns of its own;
// PostgresStore owns the pool and the transaction boundary.
type sqlStore struct {
	q Querier
}

var (
	_ CredentialStore = (*sqlStore)(nil)
	_ SessionStore    = (*sqlStore)(nil)
	_ ChatStore       = (*sqlStore)(nil)
)
