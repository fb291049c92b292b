package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/LinkPulse/internal/app/model"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/http/middleware"
	"github.com/sifan077/LinkPulse/internal/http/view"
	"go.uber.org/zap"
)

// AuthDeps groups dependencies required by account handlers.
type AuthDeps struct {
	Logger      *zap.Logger
	AuthService service.AuthService
}

// AuthHandler implements registration, login and profile endpoints.
type AuthHandler struct {
	logger      *zap.Logger
	authService service.AuthService
}

func NewAuthHandler(deps AuthDeps) *AuthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{logger: logger, authService: deps.AuthService}
}

// Register wires account routes onto the provided router.
func (h *AuthHandler) Register(router fiber.Router, requireAuth fiber.Handler) {
	group := router.Group("/auth")
	{
		group.Post("/register", h.RegisterUser)
		group.Post("/login", h.Login)
		group.Post("/logout", requireAuth, h.Logout)
		group.Post("/token_refresh", requireAuth, h.RefreshToken)
		group.Get("/get_user_data", requireAuth, h.GetUserData)
		group.Patch("/user_details", requireAuth, h.UpdateUser)
		group.Delete("/user_details", requireAuth, h.DeleteUser)
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is a user plus an access token.
type SessionResponse struct {
	*model.User
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionResponse(s *service.Session) SessionResponse {
	return SessionResponse{User: s.User, Token: s.Token, ExpiresAt: s.ExpiresAt}
}

// RegisterUser handles POST /auth/register
func (h *AuthHandler) RegisterUser(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, "register", err)
	}
	return view.Success(c, fiber.StatusCreated, "User was registered", user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, h.logger, "login", err)
	}
	return view.Success(c, fiber.StatusOK, "Authentication successful.", sessionResponse(session))
}

// Logout handles POST /auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.GetClaims(c)); err != nil {
		return respondError(c, h.logger, "logout", err)
	}
	return view.Success(c, fiber.StatusOK, "Signed out", nil)
}

// RefreshToken handles POST /auth/token_refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	session, err := h.authService.RefreshToken(c.UserContext(), middleware.GetClaims(c))
	if err != nil {
		return respondError(c, h.logger, "refresh token", err)
	}
	return view.Success(c, fiber.StatusOK, "Token refreshed successfully.", sessionResponse(session))
}

// GetUserData handles GET /auth/get_user_data
func (h *AuthHandler) GetUserData(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, h.logger, "get user", err)
	}
	return view.Success(c, fiber.StatusOK, "User data retrieved", user)
}

// UpdateUser handles PATCH /auth/user_details
func (h *AuthHandler) UpdateUser(c *fiber.Ctx) error {
	var req service.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.authService.UpdateUser(c.UserContext(), middleware.GetUserID(c), req)
	if err != nil {
		return respondError(c, h.logger, "update user", err)
	}
	return view.Success(c, fiber.StatusOK, "User details updated successfully.", user)
}

// DeleteUser handles DELETE /auth/user_details
func (h *AuthHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.authService.DeleteUser(c.UserContext(), middleware.GetClaims(c)); err != nil {
		return respondError(c, h.logger, "delete user", err)
	}
	return view.Success(c, fiber.StatusOK, "User deleted", nil)
}
