package store

import "context"

func (s *sqlStore) CreateMessage(ctx context.Context, chatID int64, userID int, text string) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO messages (chat_id, user_id, text, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id
	`, chatID, userID, text).Scan(&id)
	return id, err
}

func (s *sqlStore) ListMessagesForChat(ctx context.Context, chatID int64, pageSize, page int) ([]Message, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 0 {
		page = 0
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, chat_id, user_id, text, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, chatID, pageSize, page*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
