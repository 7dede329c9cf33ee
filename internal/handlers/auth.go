// Package handlers adapts the auth and chat services to Fiber's HTTP
// surface (SPEC_FULL.md §6): parsing bodies, invoking core operations,
// and serializing their results. No business logic lives here.
package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"walrus-messaging-core/internal/auth"
	apperrors "walrus-messaging-core/internal/errors"
	"walrus-messaging-core/internal/store"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type inviteRequest struct {
	Alias           string `json:"alias"`
	DisplayName     string `json:"display_name"`
	InitialPassword string `json:"initial_password"`
	Role            string `json:"role"`
}

// HandleInvite creates a new user, gated on the caller being Admin.
func (h *AuthHandler) HandleInvite(c *fiber.Ctx) error {
	caller, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var body inviteRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.New(apperrors.KindInvalidInput, "invalid request body")
	}

	role := store.RoleRegular
	if body.Role == string(store.RoleAdmin) {
		role = store.RoleAdmin
	}

	userID, err := h.svc.InviteUser(c.Context(), caller, auth.InviteRequest{
		Alias:           body.Alias,
		DisplayName:     body.DisplayName,
		InitialPassword: body.InitialPassword,
		Role:            role,
	})
	if err != nil {
		return err
	}

	slog.Info("user invited", "user_id", userID, "caller", caller)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user_id": userID})
}

type loginRequest struct {
	Alias    string `json:"alias"`
	Password string `json:"password"`
}

func tokenExchangeResponse(ex *auth.TokenExchange) fiber.Map {
	return fiber.Map{
		"access_token":             ex.AccessToken,
		"access_token_expires_at":  ex.AccessTokenExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		"refresh_token":            ex.RefreshToken,
		"refresh_token_expires_at": ex.RefreshTokenExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleLogin authenticates by alias/password and issues a fresh session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.New(apperrors.KindInvalidInput, "invalid request body")
	}

	audit := auth.SessionAudit{IP: c.IP()}
	if ua := c.Get("User-Agent"); ua != "" {
		audit.DeviceName = &ua
	}

	exchange, err := h.svc.Login(c.Context(), body.Alias, body.Password, audit)
	if err != nil {
		slog.Debug("login failed", "alias", body.Alias, "error", err)
		return err
	}

	return c.JSON(tokenExchangeResponse(exchange))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh rotates a session's tokens given its current refresh
// token, both packed and base64-encoded.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	var body refreshRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.New(apperrors.KindInvalidInput, "invalid request body")
	}

	sessionID, token, err := auth.ParseBearerHeader("Bearer " + body.RefreshToken)
	if err != nil {
		return apperrors.New(apperrors.KindBadCredentials, "bad auth or refresh credentials")
	}

	exchange, err := h.svc.RefreshSession(c.Context(), sessionID, token)
	if err != nil {
		return err
	}

	return c.JSON(tokenExchangeResponse(exchange))
}

// HandleLogout removes the caller's current session. Idempotent.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sessionID, _, err := auth.ParseBearerHeader(c.Get("Authorization"))
	if err != nil {
		return err
	}

	if err := h.svc.Logout(c.Context(), sessionID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleWhoAmI returns the authenticated caller's user id.
func (h *AuthHandler) HandleWhoAmI(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user_id": userID})
}
