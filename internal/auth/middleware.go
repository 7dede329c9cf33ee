package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"walrus-messaging-core/internal/authcore"
	apperrors "walrus-messaging-core/internal/errors"
)

// UserIDContextKey is the fiber.Ctx locals key RequireAuth stores the
// resolved user id under.
const UserIDContextKey = "userID"

// RequireAuth decodes the bearer header into a session id and access
// token, resolves it against the service, and stores the resulting user
// id in the request context (SPEC_FULL.md §2, Transport adapter).
func RequireAuth(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID, accessToken, err := ParseBearerHeader(c.Get("Authorization"))
		if err != nil {
			return err
		}

		userID, err := svc.ResolveAccessToken(c.Context(), sessionID, accessToken)
		if err != nil {
			return err
		}

		c.Locals(UserIDContextKey, userID)
		return c.Next()
	}
}

// ParseBearerHeader extracts and unpacks the bearer credential from an
// Authorization header value, mapping any malformed input to BadToken
// (SPEC_FULL.md §6, Bearer token format).
func ParseBearerHeader(header string) (sessionID [16]byte, token []byte, err error) {
	const prefix = "Bearer "
	if header == "" {
		return sessionID, nil, apperrors.New(apperrors.KindBadToken, "missing Authorization header")
	}
	if !strings.HasPrefix(header, prefix) {
		return sessionID, nil, apperrors.New(apperrors.KindBadToken, "malformed Authorization header")
	}

	id, raw, err := authcore.DecodeAndUnpack(strings.TrimPrefix(header, prefix))
	if err != nil {
		return sessionID, nil, apperrors.New(apperrors.KindBadToken, "malformed bearer token")
	}
	return id, raw, nil
}

// UserIDFromContext retrieves the user id RequireAuth injected.
func UserIDFromContext(c *fiber.Ctx) (int, error) {
	userID, ok := c.Locals(UserIDContextKey).(int)
	if !ok {
		return 0, apperrors.New(apperrors.KindTokenNotFound, "request is not authenticated")
	}
	return userID, nil
}
