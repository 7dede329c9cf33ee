package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CreateSession inserts a fresh session with refresh_counter starting at 1,
// matching the on-disk convention original_source/database/commands.rs
// establishes: the counter seeds at 1, so the first refresh's expected
// value is 1.
func (s *sqlStore) CreateSession(ctx context.Context, ns NewSession) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO sessions (
			id, user_id, ip, first_seen_at, last_seen_at,
			device_name, os_version, app_version,
			refresh_token, refresh_token_expires_at,
			access_token, access_token_expires_at,
			refresh_counter
		) VALUES (
			$1, $2, $3, now(), now(),
			$4, $5, $6,
			$7, $8,
			$9, $10,
			1
		)
	`, id, ns.UserID, ns.IP, ns.DeviceName, ns.OSVersion, ns.AppVersion,
		ns.RefreshToken[:], ns.RefreshTokenExpiresAt,
		ns.AccessToken[:], ns.AccessTokenExpiresAt)
	if err != nil {
		return uuid.UUID{}, err
	}
	return id, nil
}

func (s *sqlStore) AccessTokenRecord(ctx context.Context, sessionID uuid.UUID) (*AccessTokenRow, error) {
	var (
		row   AccessTokenRow
		token []byte
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT user_id, access_token, access_token_expires_at
		FROM sessions WHERE id = $1
	`, sessionID).Scan(&row.UserID, &token, &row.AccessTokenExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	copy(row.AccessToken[:], token)
	return &row, nil
}

func (s *sqlStore) RefreshTokenRecord(ctx context.Context, sessionID uuid.UUID) (*RefreshTokenRow, error) {
	var (
		row   RefreshTokenRow
		token []byte
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT refresh_token, refresh_token_expires_at, refresh_counter
		FROM sessions WHERE id = $1
	`, sessionID).Scan(&token, &row.RefreshTokenExpiresAt, &row.RefreshCounter)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	copy(row.RefreshToken[:], token)
	return &row, nil
}

// UpdateSessionTokens performs the conditional rotation: it only applies
// when the row's refresh_counter still matches upd.ExpectedCounter. A
// false return (zero rows affected) means another request already won
// the race on this session, and the caller should surface Interrupted.
func (s *sqlStore) UpdateSessionTokens(ctx context.Context, sessionID uuid.UUID, upd TokenUpdate) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		UPDATE sessions
		SET refresh_token = $1,
		    refresh_token_expires_at = $2,
		    access_token = $3,
		    access_token_expires_at = $4,
		    refresh_counter = refresh_counter + 1
		WHERE id = $5 AND refresh_counter = $6
	`, upd.RefreshToken[:], upd.RefreshTokenExpiresAt, upd.AccessToken[:], upd.AccessTokenExpiresAt,
		sessionID, upd.ExpectedCounter)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *sqlStore) RemoveSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

// DeleteExpiredSessions removes every session whose refresh token has
// expired as of now; driven by the session-janitor worker pool, never by
// a core operation.
func (s *sqlStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token_expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// TrimSessionsForUser keeps at most cap sessions per user, evicting the
// ones with the oldest access_token_expires_at first — the same ordering
// original_source/database/commands.rs::trim_sessions_for_user uses.
func (s *sqlStore) TrimSessionsForUser(ctx context.Context, userID int, cap int) error {
	_, err := s.q.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE id IN (
			SELECT id FROM sessions
			WHERE user_id = $1
			ORDER BY access_token_expires_at DESC
			OFFSET $2
		)
	`, userID, cap)
	return err
}
