package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/http/util"
	"github.com/sifan077/LinkPulse/internal/http/view"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger            *zap.Logger
	LinkService       service.LinkService
	TrustForwardedFor bool
}

// RedirectHandler resolves short codes and records clicks.
type RedirectHandler struct {
	logger            *zap.Logger
	linkService       service.LinkService
	trustForwardedFor bool
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:            logger,
		linkService:       deps.LinkService,
		trustForwardedFor: deps.TrustForwardedFor,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/api/redirect_url/:shortCode", h.Redirect)
}

// Redirect handles GET /api/redirect_url/:shortCode with a 302 to the long URL.
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	code := c.Params("shortCode")

	target, err := h.linkService.Resolve(c.UserContext(), code, service.ClickContext{
		IP:        util.ClientIP(c, h.trustForwardedFor),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
	})
	if err != nil {
		if isNotFound(err) {
			return view.Error(c, fiber.StatusNotFound, "Shortened URL not found")
		}
		return respondError(c, h.logger, "redirect", err)
	}

	h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", target))
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Redirect(target, fiber.StatusFound)
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrLinkNotFound)
}
