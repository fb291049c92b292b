package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/http/middleware"
	"github.com/sifan077/LinkPulse/internal/http/view"
	"go.uber.org/zap"
)

const internalErrorMessage = "An internal error occurred."

// respondError maps service errors onto HTTP statuses. Anything unexpected is
// logged with its detail and answered with an opaque 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		if len(verr.Fields) > 0 {
			return view.Error(c, fiber.StatusBadRequest, verr.Message, verr.Fields)
		}
		return view.Error(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrLinkNotFound):
		return view.Error(c, fiber.StatusNotFound, "URL not found or not accessible by this user")
	case errors.Is(err, service.ErrUserNotFound):
		return view.Error(c, fiber.StatusNotFound, "User not found.")
	case errors.Is(err, service.ErrUserExists):
		return view.Error(c, fiber.StatusConflict, "A user with that username or email already exists.")
	case errors.Is(err, service.ErrInactiveAccount):
		return view.Error(c, fiber.StatusBadRequest, "Invalid username or inactive account.")
	case errors.Is(err, service.ErrInvalidCredentials):
		return view.Error(c, fiber.StatusBadRequest, "Invalid credentials.")
	case errors.Is(err, service.ErrUnauthorized):
		return view.Error(c, fiber.StatusUnauthorized, "Invalid or expired token.")
	}

	logger.Error(op+" failed",
		zap.Error(err),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Path()))
	return view.Error(c, fiber.StatusInternalServerError, internalErrorMessage)
}
