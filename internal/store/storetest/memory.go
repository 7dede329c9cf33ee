// Package storetest provides an in-memory store.Store used by internal/auth
// and internal/chat tests, so the service-layer business logic (including
// the optimistic-concurrency refresh race) can be exercised without a real
// Postgres instance.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "walrus-messaging-core/internal/errors"
	"walrus-messaging-core/internal/store"
)

// Memory is a goroutine-safe in-memory store.Store.
type Memory struct {
	mu sync.Mutex

	nextUserID int
	users      map[int]store.User
	aliases    map[string]int

	sessions map[uuid.UUID]store.Session

	nextChatID int64
	chats      map[int64]store.Chat
	members    map[int64]map[int]store.ChatRole

	nextMessageID int64
	messages      []store.Message
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		nextUserID: 1,
		users:      make(map[int]store.User),
		aliases:    make(map[string]int),
		sessions:   make(map[uuid.UUID]store.Session),
		nextChatID: 1,
		chats:      make(map[int64]store.Chat),
		members:    make(map[int64]map[int]store.ChatRole),
	}
}

// WithTransaction has no real rollback semantics: every operation on
// Memory already mutates state atomically under mu, so a failure midway
// through fn simply leaves whichever steps already ran in place. That is
// sufficient for unit-testing business logic; it is not a substitute for
// the real transactional guarantees PostgresStore provides.
func (m *Memory) WithTransaction(ctx context.Context, fn func(store.Store) error) error {
	return fn(m)
}

func (m *Memory) CreateUser(ctx context.Context, u store.NewUser) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.aliases[u.Alias]; exists {
		return 0, apperrors.AlreadyExists("alias " + u.Alias + " is already taken")
	}
	id := m.nextUserID
	m.nextUserID++
	m.users[id] = store.User{
		ID:           id,
		Alias:        u.Alias,
		DisplayName:  u.DisplayName,
		Salt:         u.Salt,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		InvitedBy:    u.InvitedBy,
	}
	m.aliases[u.Alias] = id
	return id, nil
}

func (m *Memory) UserRole(ctx context.Context, userID int) (store.UserRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return "", apperrors.NotFound("user not found")
	}
	return u.Role, nil
}

func (m *Memory) UserCredentialsByAlias(ctx context.Context, alias string) (*store.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.aliases[alias]
	if !ok {
		return nil, nil
	}
	u := m.users[id]
	return &store.Credentials{UserID: u.ID, Salt: u.Salt, PasswordHash: u.PasswordHash}, nil
}

func (m *Memory) CreateSession(ctx context.Context, ns store.NewSession) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.sessions[id] = store.Session{
		ID:                    id,
		UserID:                ns.UserID,
		IP:                    ns.IP,
		DeviceName:            ns.DeviceName,
		OSVersion:             ns.OSVersion,
		AppVersion:            ns.AppVersion,
		RefreshToken:          ns.RefreshToken,
		RefreshTokenExpiresAt: ns.RefreshTokenExpiresAt,
		AccessToken:           ns.AccessToken,
		AccessTokenExpiresAt:  ns.AccessTokenExpiresAt,
		RefreshCounter:        1,
	}
	return id, nil
}

func (m *Memory) AccessTokenRecord(ctx context.Context, sessionID uuid.UUID) (*store.AccessTokenRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &store.AccessTokenRow{UserID: s.UserID, AccessToken: s.AccessToken, AccessTokenExpiresAt: s.AccessTokenExpiresAt}, nil
}

func (m *Memory) RefreshTokenRecord(ctx context.Context, sessionID uuid.UUID) (*store.RefreshTokenRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &store.RefreshTokenRow{RefreshToken: s.RefreshToken, RefreshTokenExpiresAt: s.RefreshTokenExpiresAt, RefreshCounter: s.RefreshCounter}, nil
}

func (m *Memory) UpdateSessionTokens(ctx context.Context, sessionID uuid.UUID, upd store.TokenUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if s.RefreshCounter != upd.ExpectedCounter {
		return false, nil
	}
	s.RefreshToken = upd.RefreshToken
	s.RefreshTokenExpiresAt = upd.RefreshTokenExpiresAt
	s.AccessToken = upd.AccessToken
	s.AccessTokenExpiresAt = upd.AccessTokenExpiresAt
	s.RefreshCounter++
	m.sessions[sessionID] = s
	return true, nil
}

func (m *Memory) RemoveSession(ctx context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

func (m *Memory) TrimSessionsForUser(ctx context.Context, userID int, cap int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []uuid.UUID
	for id, s := range m.sessions {
		if s.UserID == userID {
			ids = append(ids, id)
		}
	}
	if len(ids) <= cap {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.sessions[ids[i]].AccessTokenExpiresAt.After(m.sessions[ids[j]].AccessTokenExpiresAt)
	})
	for _, id := range ids[cap:] {
		delete(m.sessions, id)
	}
	return nil
}

// DeleteExpiredSessions removes every session whose refresh token has
// expired as of now, mirroring sqlStore's behavior.
func (m *Memory) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, s := range m.sessions {
		if !s.RefreshTokenExpiresAt.After(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) CreateChat(ctx context.Context, displayName, description *string, kind store.ChatKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextChatID
	m.nextChatID++
	m.chats[id] = store.Chat{ID: id, DisplayName: displayName, Description: description, Kind: kind}
	m.members[id] = make(map[int]store.ChatRole)
	return id, nil
}

func (m *Memory) AddMember(ctx context.Context, userID int, chatID int64, role store.ChatRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.members[chatID] == nil {
		m.members[chatID] = make(map[int]store.ChatRole)
	}
	m.members[chatID][userID] = role
	return nil
}

func (m *Memory) IsMember(ctx context.Context, chatID int64, userID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.members[chatID][userID]
	return ok, nil
}

func (m *Memory) PrivateChatExists(ctx context.Context, a, b int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for chatID, c := range m.chats {
		if c.Kind != store.ChatKindPrivate {
			continue
		}
		members := m.members[chatID]
		if _, ok := members[a]; !ok {
			continue
		}
		if _, ok := members[b]; !ok {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *Memory) UserIDByAlias(ctx context.Context, alias string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.aliases[alias]
	if !ok {
		return 0, apperrors.NotFound("user " + alias + " not found")
	}
	return id, nil
}

func (m *Memory) CreateMessage(ctx context.Context, chatID int64, userID int, text string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextMessageID
	m.nextMessageID++
	m.messages = append(m.messages, store.Message{ID: id, ChatID: chatID, UserID: userID, Text: text})
	return id, nil
}

func (m *Memory) ListChatsForUser(ctx context.Context, userID int, pageSize, page int) ([]store.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var chats []store.Chat
	for chatID, members := range m.members {
		if _, ok := members[userID]; ok {
			chats = append(chats, m.chats[chatID])
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].ID > chats[j].ID })
	return paginate(chats, pageSize, page), nil
}

func (m *Memory) ListMessagesForChat(ctx context.Context, chatID int64, pageSize, page int) ([]store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var messages []store.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			messages = append(messages, msg)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID > messages[j].ID })
	return paginate(messages, pageSize, page), nil
}

func paginate[T any](items []T, pageSize, page int) []T {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 0 {
		page = 0
	}
	start := page * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
