// Package schema bootstraps (or tears down) the relational schema the
// core assumes exists: the {users, chats, chats_members, sessions,
// messages} tables, their enum types, and the origin Admin user
// (SPEC_FULL.md §6, grounded on original_source/database/schema.rs).
// Installing the schema is an operational concern invoked by the
// migrate CLI path, never implicitly by the core itself.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"walrus-messaging-core/internal/authcore"
)

// CreateAll creates every table, enum type, and the origin Admin user,
// inside a single transaction.
func CreateAll(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range createStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}

	if err := seedOriginUser(ctx, tx); err != nil {
		return fmt.Errorf("seed origin user: %w", err)
	}

	return tx.Commit()
}

// DropAll drops every table and enum type, inside a single transaction.
func DropAll(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range dropStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}

var createStatements = []string{
	`CREATE TYPE user_role AS ENUM ('admin', 'regular')`,
	`CREATE TYPE chat_kind AS ENUM ('with_self', 'private', 'group', 'channel')`,
	`CREATE TYPE chat_role AS ENUM ('owner', 'moderator', 'member')`,
	`CREATE TABLE users (
		id            int PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		alias         VARCHAR(30) NOT NULL UNIQUE,
		display_name  VARCHAR(30) NOT NULL,
		salt          BYTEA NOT NULL,
		password_hash BYTEA NOT NULL,
		role          user_role NOT NULL,
		invited_by    int REFERENCES users(id) ON DELETE SET NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE chats (
		id           bigint PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		display_name VARCHAR(50),
		description  VARCHAR(255),
		kind         chat_kind NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE chats_members (
		user_id   int NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		chat_id   bigint NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		role      chat_role NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, chat_id)
	)`,
	`CREATE TABLE sessions (
		id                       uuid PRIMARY KEY,
		user_id                  int NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		ip                       VARCHAR(64) NOT NULL,
		first_seen_at            TIMESTAMPTZ NOT NULL,
		last_seen_at             TIMESTAMPTZ NOT NULL,
		device_name              VARCHAR(128),
		os_version               VARCHAR(128),
		app_version              VARCHAR(32),
		refresh_token            BYTEA NOT NULL,
		refresh_token_expires_at TIMESTAMPTZ NOT NULL,
		access_token             BYTEA NOT NULL,
		access_token_expires_at  TIMESTAMPTZ NOT NULL,
		refresh_counter          int NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE messages (
		id         bigint PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		chat_id    bigint NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		user_id    int NOT NULL REFERENCES users(id),
		text       VARCHAR(4096) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS messages`,
	`DROP TABLE IF EXISTS sessions`,
	`DROP TABLE IF EXISTS chats_members`,
	`DROP TABLE IF EXISTS chats`,
	`DROP TABLE IF EXISTS users`,
	`DROP TYPE IF EXISTS chat_role`,
	`DROP TYPE IF EXISTS chat_kind`,
	`DROP TYPE IF EXISTS user_role`,
}

// seedOriginUser creates the single Admin user with no inviter, so the
// first real invite has one (SPEC_FULL.md §3, Origin user).
func seedOriginUser(ctx context.Context, tx *sql.Tx) error {
	salt, err := authcore.GenerateSalt()
	if err != nil {
		return err
	}
	hash := authcore.HashPassword([]byte("changepassword"), salt)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (alias, display_name, salt, password_hash, role, invited_by)
		VALUES ('origin', 'Origin User', $1, $2, 'admin', NULL)
	`, salt[:], hash[:])
	return err
}
