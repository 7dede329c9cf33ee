package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	apperrors "walrus-messaging-core/internal/errors"
)

// pqUniqueViolation is the SQLSTATE Postgres raises on a unique-index
// collision; lib/pq surfaces it as *pq.Error with this Code.
const pqUniqueViolation = "23505"

func (s *sqlStore) CreateUser(ctx context.Context, u NewUser) (int, error) {
	var id int
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO users (alias, display_name, salt, password_hash, role, invited_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Alias, u.DisplayName, u.Salt[:], u.PasswordHash[:], string(u.Role), u.InvitedBy).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return 0, apperrors.AlreadyExists("alias " + u.Alias + " is already taken")
		}
		return 0, err
	}
	return id, nil
}

func (s *sqlStore) UserRole(ctx context.Context, userID int) (UserRole, error) {
	var role string
	err := s.q.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", apperrors.NotFound("user not found")
	}
	if err != nil {
		return "", err
	}
	return UserRole(strings.ToLower(role)), nil
}

func (s *sqlStore) UserCredentialsByAlias(ctx context.Context, alias string) (*Credentials, error) {
	var (
		creds    Credentials
		salt     []byte
		passHash []byte
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, salt, password_hash FROM users WHERE alias = $1
	`, alias).Scan(&creds.UserID, &salt, &passHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	copy(creds.Salt[:], salt)
	copy(creds.PasswordHash[:], passHash)
	return &creds, nil
}
