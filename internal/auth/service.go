// Package auth implements the session-lifecycle core: credential
// issuance, login, access-token resolution, replay-safe refresh, logout
// and per-user session capping (SPEC_FULL.md §4.4).
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"walrus-messaging-core/internal/authcore"
	"walrus-messaging-core/internal/chat"
	apperrors "walrus-messaging-core/internal/errors"
	"walrus-messaging-core/internal/store"
	"walrus-messaging-core/internal/validation"
)

// MaxSessionsPerUser bounds how many sessions a single user may hold at
// once; Login trims the oldest beyond this cap in the same transaction.
const MaxSessionsPerUser = 100

const (
	accessTokenTTL  = 2 * time.Hour
	refreshTokenTTL = 14 * 24 * time.Hour
)

// Service is the authentication core, constructed with the store and
// clock it's wired against. It holds no other mutable state.
type Service struct {
	store store.Store
	clock authcore.Clock
}

func NewService(s store.Store, clock authcore.Clock) *Service {
	if clock == nil {
		clock = authcore.SystemClock{}
	}
	return &Service{store: s, clock: clock}
}

// InviteRequest is the input to InviteUser.
type InviteRequest struct {
	Alias           string
	DisplayName     string
	InitialPassword string
	Role            store.UserRole
}

// TokenExchange is returned by Login and RefreshSession: the packed,
// base64-encoded bearer credentials plus their expiries.
type TokenExchange struct {
	SessionID             uuid.UUID
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// SessionAudit carries the transport-supplied metadata recorded against a
// session at login (SPEC_FULL.md §9, Design Notes: audit fields come from
// the request, not hard-coded placeholders).
type SessionAudit struct {
	IP         string
	DeviceName *string
	OSVersion  *string
	AppVersion *string
}

// InviteUser creates a new user account and its personal WithSelf chat,
// gated on the caller holding the Admin role.
func (s *Service) InviteUser(ctx context.Context, caller int, req InviteRequest) (int, error) {
	var userID int
	err := s.store.WithTransaction(ctx, func(tx store.Store) error {
		role, err := tx.UserRole(ctx, caller)
		if err != nil {
			return err
		}
		if role != store.RoleAdmin {
			return apperrors.InsufficientPermissions(string(role), string(store.RoleAdmin))
		}

		if err := validation.Alias(req.Alias); err != nil {
			return err
		}
		if err := validation.DisplayName(req.DisplayName); err != nil {
			return err
		}
		if err := validation.Password(req.InitialPassword); err != nil {
			return err
		}

		salt, err := authcore.GenerateSalt()
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal)
		}
		hash := authcore.HashPassword([]byte(req.InitialPassword), salt)

		invitedBy := caller
		id, err := tx.CreateUser(ctx, store.NewUser{
			Alias:        req.Alias,
			DisplayName:  req.DisplayName,
			Salt:         salt,
			PasswordHash: hash,
			Role:         req.Role,
			InvitedBy:    &invitedBy,
		})
		if err != nil {
			return err
		}

		if _, err := chat.NewService(tx, nil).CreateWithSelfChat(ctx, id); err != nil {
			return err
		}

		userID = id
		return nil
	})
	return userID, err
}

// Login authenticates by alias/password and issues a new session.
func (s *Service) Login(ctx context.Context, alias, password string, audit SessionAudit) (*TokenExchange, error) {
	var exchange *TokenExchange
	err := s.store.WithTransaction(ctx, func(tx store.Store) error {
		creds, err := tx.UserCredentialsByAlias(ctx, alias)
		if err != nil {
			return err
		}
		if creds == nil {
			return apperrors.New(apperrors.KindBadCredentials, "bad auth or refresh credentials")
		}

		computed := authcore.HashPassword([]byte(password), creds.Salt)
		if !authcore.ConstantTimeEqual(computed[:], creds.PasswordHash[:]) {
			return apperrors.New(apperrors.KindBadCredentials, "bad auth or refresh credentials")
		}

		now := s.clock.Now()
		refreshToken, err := authcore.GenerateSessionToken()
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal)
		}
		accessToken, err := authcore.GenerateSessionToken()
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal)
		}
		refreshExpires := now.Add(refreshTokenTTL)
		accessExpires := now.Add(accessTokenTTL)

		sessionID, err := tx.CreateSession(ctx, store.NewSession{
			UserID:                creds.UserID,
			IP:                    audit.IP,
			DeviceName:            audit.DeviceName,
			OSVersion:             audit.OSVersion,
			AppVersion:            audit.AppVersion,
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: refreshExpires,
			AccessToken:           accessToken,
			AccessTokenExpiresAt:  accessExpires,
		})
		if err != nil {
			return err
		}

		if err := tx.TrimSessionsForUser(ctx, creds.UserID, MaxSessionsPerUser); err != nil {
			return err
		}

		exchange = &TokenExchange{
			SessionID:             sessionID,
			AccessToken:           authcore.PackAndEncode(sessionID, accessToken[:]),
			AccessTokenExpiresAt:  accessExpires,
			RefreshToken:          authcore.PackAndEncode(sessionID, refreshToken[:]),
			RefreshTokenExpiresAt: refreshExpires,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exchange, nil
}

// ResolveAccessToken validates a packed bearer access token and returns
// the owning user id.
func (s *Service) ResolveAccessToken(ctx context.Context, sessionID uuid.UUID, accessTokenBytes []byte) (int, error) {
	row, err := s.store.AccessTokenRecord(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, apperrors.New(apperrors.KindTokenNotFound, "session not found")
	}
	if !authcore.ConstantTimeEqual(accessTokenBytes, row.AccessToken[:]) {
		return 0, apperrors.New(apperrors.KindTokenNotFound, "session not found")
	}
	if !row.AccessTokenExpiresAt.After(s.clock.Now()) {
		return 0, apperrors.New(apperrors.KindTokenExpired, "access token expired")
	}
	return row.UserID, nil
}

// RefreshSession rotates a session's tokens, defending against replay
// (expired refresh token) and concurrent refresh (optimistic counter).
func (s *Service) RefreshSession(ctx context.Context, sessionID uuid.UUID, refreshTokenBytes []byte) (*TokenExchange, error) {
	var exchange *TokenExchange
	err := s.store.WithTransaction(ctx, func(tx store.Store) error {
		row, err := tx.RefreshTokenRecord(ctx, sessionID)
		if err != nil {
			return err
		}
		if row == nil {
			return apperrors.New(apperrors.KindBadCredentials, "bad auth or refresh credentials")
		}
		if !authcore.ConstantTimeEqual(refreshTokenBytes, row.RefreshToken[:]) {
			return apperrors.New(apperrors.KindBadCredentials, "bad auth or refresh credentials")
		}
		now := s.clock.Now()
		if !row.RefreshTokenExpiresAt.After(now) {
			return apperrors.New(apperrors.KindExpired, "operation is not valid anymore, please sign in again")
		}

		refreshToken, err := authcore.GenerateSessionToken()
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal)
		}
		accessToken, err := authcore.GenerateSessionToken()
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal)
		}
		refreshExpires := now.Add(refreshTokenTTL)
		accessExpires := now.Add(accessTokenTTL)

		updated, err := tx.UpdateSessionTokens(ctx, sessionID, store.TokenUpdate{
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: refreshExpires,
			AccessToken:           accessToken,
			AccessTokenExpiresAt:  accessExpires,
			ExpectedCounter:       row.RefreshCounter,
		})
		if err != nil {
			return err
		}
		if !updated {
			return apperrors.New(apperrors.KindInterrupted, "interrupted operation")
		}

		exchange = &TokenExchange{
			SessionID:             sessionID,
			AccessToken:           authcore.PackAndEncode(sessionID, accessToken[:]),
			AccessTokenExpiresAt:  accessExpires,
			RefreshToken:          authcore.PackAndEncode(sessionID, refreshToken[:]),
			RefreshTokenExpiresAt: refreshExpires,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exchange, nil
}

// Logout removes a session. Deleting an already-gone session succeeds
// silently (SPEC_FULL.md §4.4).
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.store.RemoveSession(ctx, sessionID)
}
