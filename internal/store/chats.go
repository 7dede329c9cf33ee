package store

import (
	"context"
	"database/sql"

	apperrors "walrus-messaging-core/internal/errors"
)

func (s *sqlStore) CreateChat(ctx context.Context, displayName, description *string, kind ChatKind) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO chats (display_name, description, kind, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id
	`, displayName, description, string(kind)).Scan(&id)
	return id, err
}

func (s *sqlStore) AddMember(ctx context.Context, userID int, chatID int64, role ChatRole) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO chats_members (chat_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, now())
	`, chatID, userID, string(role))
	return err
}

func (s *sqlStore) IsMember(ctx context.Context, chatID int64, userID int) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM chats_members WHERE chat_id = $1 AND user_id = $2)
	`, chatID, userID).Scan(&exists)
	return exists, err
}

// PrivateChatExists reports whether a private chat already pairs a and b, checked symmetrically since chats_members rows don't
// encode an ordering between the two participants.
func (s *sqlStore) PrivateChatExists(ctx context.Context, a, b int) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM chats c
			WHERE c.kind = 'private'
			  AND EXISTS (SELECT 1 FROM chats_members m WHERE m.chat_id = c.id AND m.user_id = $1)
			  AND EXISTS (SELECT 1 FROM chats_members m WHERE m.chat_id = c.id AND m.user_id = $2)
		)
	`, a, b).Scan(&exists)
	return exists, err
}

func (s *sqlStore) UserIDByAlias(ctx context.Context, alias string) (int, error) {
	var id int
	err := s.q.QueryRowContext(ctx, `SELECT id FROM users WHERE alias = $1`, alias).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, apperrors.NotFound("user " + alias + " not found")
	}
	return id, err
}

func (s *sqlStore) ListChatsForUser(ctx context.Context, userID int, pageSize, page int) ([]Chat, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 0 {
		page = 0
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.display_name, c.description, c.kind, c.created_at
		FROM chats c
		JOIN chats_members m ON m.chat_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.id DESC
		LIMIT $2 OFFSET $3
	`, userID, pageSize, page*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var (
			c    Chat
			kind string
		)
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Description, &kind, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Kind = ChatKind(kind)
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
