package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/LinkPulse/internal/app/auth"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/http/view"
	"go.uber.org/zap"
)

const (
	claimsLocal = "auth_claims"
	userIDLocal = "user_id"
)

// Authenticator validates bearer tokens. service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid, unrevoked bearer token.
func RequireAuth(authenticator Authenticator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return view.Error(c, fiber.StatusUnauthorized, "Authentication credentials were not provided.")
		}

		claims, err := authenticator.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return view.Error(c, fiber.StatusUnauthorized, "Invalid or expired token.")
			}
			logger.Error("failed to authenticate request", zap.Error(err))
			return view.Error(c, fiber.StatusServiceUnavailable, "Authentication is temporarily unavailable.")
		}

		c.Locals(claimsLocal, claims)
		c.Locals(userIDLocal, claims.UserID)
		return c.Next()
	}
}

// GetClaims returns the claims stored by RequireAuth, or nil.
func GetClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsLocal).(*auth.Claims)
	return claims
}

// GetUserID returns the authenticated user id, or "".
func GetUserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(userIDLocal).(string)
	return uid
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
