package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walrus-messaging-core/internal/auth"
	"walrus-messaging-core/internal/authcore"
	apperrors "walrus-messaging-core/internal/errors"
	"walrus-messaging-core/internal/store"
	"walrus-messaging-core/internal/store/storetest"
)

func newTestService(t *testing.T) (*auth.Service, *authcore.FixedClock, int) {
	t.Helper()
	mem := storetest.New()
	clock := authcore.NewFixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := auth.NewService(mem, clock)

	originID, err := mem.CreateUser(context.Background(), store.NewUser{
		Alias:       "origin",
		DisplayName: "Origin User",
		Role:        store.RoleAdmin,
	})
	require.NoError(t, err)
	return svc, clock, originID
}

func inviteUser(t *testing.T, svc *auth.Service, caller int, alias, password string) int {
	t.Helper()
	userID, err := svc.InviteUser(context.Background(), caller, auth.InviteRequest{
		Alias:           alias,
		DisplayName:     alias,
		InitialPassword: password,
		Role:            store.RoleRegular,
	})
	require.NoError(t, err)
	return userID
}

// S3 — Login/resolve.
func TestLoginAndResolveAccessToken(t *testing.T) {
	svc, _, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	exchange, err := svc.Login(context.Background(), "user_a", "passfora", auth.SessionAudit{IP: "127.0.0.1"})
	require.NoError(t, err)

	sessionID, accessBytes, err := authcore.DecodeAndUnpack(exchange.AccessToken)
	require.NoError(t, err)

	userID, err := svc.ResolveAccessToken(context.Background(), sessionID, accessBytes)
	require.NoError(t, err)
	assert.NotZero(t, userID)
}

func TestLogin_BadAliasIsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Login(context.Background(), "nonexistent", "whatever1", auth.SessionAudit{})

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindBadCredentials, appErr.Kind)
}

func TestLogin_WrongPasswordIsBadCredentials(t *testing.T) {
	svc, _, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	_, err := svc.Login(context.Background(), "user_a", "totallywrong", auth.SessionAudit{})

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindBadCredentials, appErr.Kind)
}

// S4 — Session cap.
func TestLogin_TrimsSessionsBeyondCap(t *testing.T) {
	svc, clock, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	var first *auth.TokenExchange
	var last *auth.TokenExchange
	for i := 0; i < auth.MaxSessionsPerUser+1; i++ {
		clock.Advance(time.Second)
		ex, err := svc.Login(context.Background(), "user_a", "passfora", auth.SessionAudit{})
		require.NoError(t, err)
		if i == 0 {
			first = ex
		}
		last = ex
	}

	sessionID, accessBytes, err := authcore.DecodeAndUnpack(first.AccessToken)
	require.NoError(t, err)
	_, err = svc.ResolveAccessToken(context.Background(), sessionID, accessBytes)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindTokenNotFound, appErr.Kind)

	sessionID, accessBytes, err = authcore.DecodeAndUnpack(last.AccessToken)
	require.NoError(t, err)
	_, err = svc.ResolveAccessToken(context.Background(), sessionID, accessBytes)
	assert.NoError(t, err)
}

// S5 — Logout idempotence.
func TestLogout_IsIdempotentAndInvalidatesToken(t *testing.T) {
	svc, _, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	exchange, err := svc.Login(context.Background(), "user_a", "passfora", auth.SessionAudit{})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), exchange.SessionID))
	require.NoError(t, svc.Logout(context.Background(), exchange.SessionID)) // second logout, no error

	sessionID, accessBytes, err := authcore.DecodeAndUnpack(exchange.AccessToken)
	require.NoError(t, err)
	_, err = svc.ResolveAccessToken(context.Background(), sessionID, accessBytes)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindTokenNotFound, appErr.Kind)
}

// S6 — Refresh race: exactly one of two concurrent refreshes wins.
func TestRefreshSession_ConcurrentRaceHasExactlyOneWinner(t *testing.T) {
	svc, _, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	exchange, err := svc.Login(context.Background(), "user_a", "passfora", auth.SessionAudit{})
	require.NoError(t, err)

	sessionID, refreshBytes, err := authcore.DecodeAndUnpack(exchange.RefreshToken)
	require.NoError(t, err)

	oldAccessSessionID, oldAccessBytes, err := authcore.DecodeAndUnpack(exchange.AccessToken)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	winners := make([]*auth.TokenExchange, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex, err := svc.RefreshSession(context.Background(), sessionID, refreshBytes)
			results[i] = err
			winners[i] = ex
		}(i)
	}
	wg.Wait()

	successes, interrupted := 0, 0
	var winner *auth.TokenExchange
	for i, err := range results {
		if err == nil {
			successes++
			winner = winners[i]
			continue
		}
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		if appErr.Kind == apperrors.KindInterrupted {
			interrupted++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, interrupted)
	require.NotNil(t, winner)

	newSessionID, newAccessBytes, err := authcore.DecodeAndUnpack(winner.AccessToken)
	require.NoError(t, err)
	_, err = svc.ResolveAccessToken(context.Background(), newSessionID, newAccessBytes)
	assert.NoError(t, err)

	_, err = svc.ResolveAccessToken(context.Background(), oldAccessSessionID, oldAccessBytes)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindTokenNotFound, appErr.Kind)
}

func TestRefreshSession_ExpiredRefreshToken(t *testing.T) {
	svc, clock, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	exchange, err := svc.Login(context.Background(), "user_a", "passfora", auth.SessionAudit{})
	require.NoError(t, err)

	sessionID, refreshBytes, err := authcore.DecodeAndUnpack(exchange.RefreshToken)
	require.NoError(t, err)

	clock.Advance(15 * 24 * time.Hour)

	_, err = svc.RefreshSession(context.Background(), sessionID, refreshBytes)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindExpired, appErr.Kind)
}

func TestResolveAccessToken_ExpiredToken(t *testing.T) {
	svc, clock, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	exchange, err := svc.Login(context.Background(), "user_a", "passfora", auth.SessionAudit{})
	require.NoError(t, err)

	sessionID, accessBytes, err := authcore.DecodeAndUnpack(exchange.AccessToken)
	require.NoError(t, err)

	clock.Advance(3 * time.Hour)

	_, err = svc.ResolveAccessToken(context.Background(), sessionID, accessBytes)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindTokenExpired, appErr.Kind)
}

func TestInviteUser_RequiresAdminCaller(t *testing.T) {
	svc, _, origin := newTestService(t)
	regularID := inviteUser(t, svc, origin, "user_a", "passfora")

	_, err := svc.InviteUser(context.Background(), regularID, auth.InviteRequest{
		Alias:           "user_b",
		DisplayName:     "User B",
		InitialPassword: "passforb1",
		Role:            store.RoleRegular,
	})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindInsufficientPermissions, appErr.Kind)
}

func TestInviteUser_RejectsDuplicateAlias(t *testing.T) {
	svc, _, origin := newTestService(t)
	inviteUser(t, svc, origin, "user_a", "passfora")

	_, err := svc.InviteUser(context.Background(), origin, auth.InviteRequest{
		Alias:           "user_a",
		DisplayName:     "Duplicate",
		InitialPassword: "passfora2",
		Role:            store.RoleRegular,
	})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindAlreadyExists, appErr.Kind)
}

func TestInviteUser_ValidatesFields(t *testing.T) {
	svc, _, origin := newTestService(t)

	tests := []struct {
		name     string
		req      auth.InviteRequest
		wantKind apperrors.Kind
	}{
		{
			name:     "alias too long",
			req:      auth.InviteRequest{Alias: string(make([]byte, 31)), DisplayName: "x", InitialPassword: "longenough1", Role: store.RoleRegular},
			wantKind: apperrors.KindLimitExceeded,
		},
		{
			name:     "password too short",
			req:      auth.InviteRequest{Alias: "shortpw", DisplayName: "x", InitialPassword: "short1", Role: store.RoleRegular},
			wantKind: apperrors.KindInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.InviteUser(context.Background(), origin, tt.req)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, appErr.Kind)
		})
	}
}
