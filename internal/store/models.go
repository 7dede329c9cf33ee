// Package store holds the Postgres-backed persistence layer: the
// credential store, the session store, and the chat/membership/message
// store, each behind a narrow interface so the service layer
// (internal/auth, internal/chat) can be tested against fakes without a
// real database.
package store

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the account-wide role used for the invite gate.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleRegular UserRole = "regular"
)

// ChatKind distinguishes the four chat shapes the schema supports. Only
// WithSelf and Private are created by public service operations; Group
// and Channel exist in the schema but no code path creates them
// (SPEC_FULL.md, Open Questions).
type ChatKind string

const (
	ChatKindWithSelf ChatKind = "with_self"
	ChatKindPrivate  ChatKind = "private"
	ChatKindGroup    ChatKind = "group"
	ChatKindChannel  ChatKind = "channel"
)

// ChatRole is a membership-scoped role, independent of UserRole.
type ChatRole string

const (
	ChatRoleOwner     ChatRole = "owner"
	ChatRoleModerator ChatRole = "moderator"
	ChatRoleMember    ChatRole = "member"
)

// User is a row of the users table.
type User struct {
	ID           int
	Alias        string
	DisplayName  string
	Salt         [16]byte
	PasswordHash [32]byte
	Role         UserRole
	InvitedBy    *int
	CreatedAt    time.Time
}

// Credentials is the narrow projection returned by a credential lookup.
type Credentials struct {
	UserID       int
	Salt         [16]byte
	PasswordHash [32]byte
}

// Session is a row of the sessions table.
type Session struct {
	ID                     uuid.UUID
	UserID                 int
	IP                     string
	FirstSeenAt            time.Time
	LastSeenAt             time.Time
	DeviceName             *string
	OSVersion              *string
	AppVersion             *string
	RefreshToken           [32]byte
	RefreshTokenExpiresAt  time.Time
	AccessToken            [32]byte
	AccessTokenExpiresAt   time.Time
	RefreshCounter         int
}

// AccessTokenRow is the narrow projection read on every resolve call.
type AccessTokenRow struct {
	UserID               int
	AccessToken          [32]byte
	AccessTokenExpiresAt time.Time
}

// RefreshTokenRow is the narrow projection read on every refresh call.
type RefreshTokenRow struct {
	RefreshToken          [32]byte
	RefreshTokenExpiresAt time.Time
	RefreshCounter        int
}

// Chat is a row of the chats table.
type Chat struct {
	ID          int64
	DisplayName *string
	Description *string
	Kind        ChatKind
	CreatedAt   time.Time
}

// Message is a row of the messages table.
type Message struct {
	ID        int64
	ChatID    int64
	UserID    int
	Text      string
	CreatedAt time.Time
}
