package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	apperrors "walrus-messaging-core/internal/errors"
)

// ErrorHandler renders any error reaching fiber's top level as the
// standardized AppError JSON body, logging unexpected (non-AppError)
// failures at error level. Enumeration-sensitive distinctions (bad alias
// vs. bad password, bad session vs. bad refresh token) are logged at
// debug only — never at a level an operator dashboard surfaces to a
// caller (SPEC_FULL.md §9, Design Notes).
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals(RequestIDKey).(string)

		if appErr, ok := apperrors.IsAppError(err); ok {
			slog.Debug("request failed", "kind", appErr.Kind, "path", c.Path(), "request_id", requestID)
			return c.Status(appErr.StatusCode()).JSON(appErr.WithRequestID(requestID))
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			slog.Warn("request failed", "error", fiberErr, "path", c.Path(), "request_id", requestID)
			return c.Status(fiberErr.Code).JSON(apperrors.New(apperrors.KindBadToken, fiberErr.Message).WithRequestID(requestID))
		}

		slog.Error("request failed with unexpected error", "error", err, "path", c.Path(), "request_id", requestID)
		return c.Status(fiber.StatusInternalServerError).JSON(
			apperrors.New(apperrors.KindInternal, "an unexpected error occurred").WithRequestID(requestID),
		)
	}
}
