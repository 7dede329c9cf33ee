package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewUser is the input to CreateUser.
type NewUser struct {
	Alias        string
	DisplayName  string
	Salt         [16]byte
	PasswordHash [32]byte
	Role         UserRole
	InvitedBy    *int
}

// CredentialStore persists and looks up user accounts (SPEC_FULL.md §4.2).
type CredentialStore interface {
	// CreateUser fails with a Validation(AlreadyExists) AppError if the
	// alias collides.
	CreateUser(ctx context.Context, u NewUser) (int, error)
	// UserRole fails with a Validation(NotFound) AppError if the user
	// does not exist.
	UserRole(ctx context.Context, userID int) (UserRole, error)
	// UserCredentialsByAlias returns (nil, nil) for a missing alias,
	// never an error — collapsing "no such user" into BadCredentials is
	// the caller's job.
	UserCredentialsByAlias(ctx context.Context, alias string) (*Credentials, error)
}

// NewSession is the input to CreateSession.
type NewSession struct {
	UserID                int
	IP                    string
	DeviceName            *string
	OSVersion             *string
	AppVersion            *string
	RefreshToken          [32]byte
	RefreshTokenExpiresAt time.Time
	AccessToken           [32]byte
	AccessTokenExpiresAt  time.Time
}

// TokenUpdate is the input to UpdateSessionTokens.
type TokenUpdate struct {
	RefreshToken          [32]byte
	RefreshTokenExpiresAt time.Time
	AccessToken           [32]byte
	AccessTokenExpiresAt  time.Time
	ExpectedCounter       int
}

// SessionStore persists and mutates sessions (SPEC_FULL.md §4.3). Every
// method is safe to call concurrently for different or the same session
// id; UpdateSessionTokens is the optimistic-concurrency primitive that
// makes concurrent refreshes safe.
type SessionStore interface {
	CreateSession(ctx context.Context, s NewSession) (uuid.UUID, error)
	AccessTokenRecord(ctx context.Context, sessionID uuid.UUID) (*AccessTokenRow, error)
	RefreshTokenRecord(ctx context.Context, sessionID uuid.UUID) (*RefreshTokenRow, error)
	UpdateSessionTokens(ctx context.Context, sessionID uuid.UUID, upd TokenUpdate) (bool, error)
	RemoveSession(ctx context.Context, sessionID uuid.UUID) error
	TrimSessionsForUser(ctx context.Context, userID int, cap int) error
	// DeleteExpiredSessions removes every session whose refresh token has
	// expired — once that happens the session can never be revived via
	// refresh, so it is permanently dead rather than merely idle. Driven
	// by the session-janitor worker pool, not by any core operation.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ChatStore persists chats, memberships and messages (SPEC_FULL.md §4.5).
type ChatStore interface {
	CreateChat(ctx context.Context, displayName, description *string, kind ChatKind) (int64, error)
	AddMember(ctx context.Context, userID int, chatID int64, role ChatRole) error
	IsMember(ctx context.Context, chatID int64, userID int) (bool, error)
	PrivateChatExists(ctx context.Context, a, b int) (bool, error)
	UserIDByAlias(ctx context.Context, alias string) (int, error)
	CreateMessage(ctx context.Context, chatID int64, userID int, text string) (int64, error)
	ListChatsForUser(ctx context.Context, userID int, pageSize, page int) ([]Chat, error)
	ListMessagesForChat(ctx context.Context, chatID int64, pageSize, page int) ([]Message, error)
}

// Store is the full persistence surface the auth and chat services use.
// WithTransaction runs fn against a store bound to a single transaction;
// any error returned by fn rolls the transaction back.
type Store interface {
	CredentialStore
	SessionStore
	ChatStore

	WithTransaction(ctx context.Context, fn func(Store) error) error
}
