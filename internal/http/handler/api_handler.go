package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/LinkPulse/internal/app/model"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/http/middleware"
	"github.com/sifan077/LinkPulse/internal/http/view"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrCodeSize = 256

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Analytics   service.AnalyticsService
	// BaseURL is the public origin used to render short links.
	BaseURL string
}

// APIHandler implements the link management API endpoints.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	analytics   service.AnalyticsService
	baseURL     string
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:      logger,
		linkService: deps.LinkService,
		analytics:   deps.Analytics,
		baseURL:     strings.TrimRight(deps.BaseURL, "/"),
	}
}

// Register wires API routes onto the provided router. Every route requires auth.
func (h *APIHandler) Register(router fiber.Router, requireAuth fiber.Handler) {
	api := router.Group("/api")
	{
		api.Post("/shorten", requireAuth, h.Shorten)
		api.Get("/urls", requireAuth, h.ListLinks)
		api.Delete("/delete_url/:id", requireAuth, h.DeleteLink)
		api.Get("/analytics/:shortCode", requireAuth, h.Analytics)
		api.Get("/qrcode/:shortCode", requireAuth, h.QRCode)
	}
}

// ShortenRequest represents the request body for creating a link.
type ShortenRequest struct {
	LongURL string `json:"long_url"`
	Name    string `json:"name"`
}

// LinkResponse is the public representation of a short link.
type LinkResponse struct {
	ID            string     `json:"id"`
	User          string     `json:"user"`
	Name          string     `json:"name"`
	LongURL       string     `json:"long_url"`
	ShortCode     string     `json:"short_code"`
	ShortURL      string     `json:"short_url"`
	CreatedAt     time.Time  `json:"created_at"`
	Clicks        int64      `json:"clicks"`
	LastClickedAt *time.Time `json:"clicked_date"`
}

func (h *APIHandler) toResponse(link *model.ShortLink) LinkResponse {
	return LinkResponse{
		ID:            link.ID,
		User:          link.UserID,
		Name:          link.Name,
		LongURL:       link.LongURL,
		ShortCode:     link.ShortCode,
		ShortURL:      h.shortURL(link.ShortCode),
		CreatedAt:     link.CreatedAt,
		Clicks:        link.ClickCount,
		LastClickedAt: link.LastClickedAt,
	}
}

func (h *APIHandler) shortURL(code string) string {
	return fmt.Sprintf("%s/api/redirect_url/%s", h.baseURL, code)
}

// Shorten handles POST /api/shorten
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	var req ShortenRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	link, err := h.linkService.Shorten(c.UserContext(), middleware.GetUserID(c), service.ShortenInput{
		LongURL: req.LongURL,
		Name:    req.Name,
	})
	if err != nil {
		return respondError(c, h.logger, "shorten", err)
	}

	return view.Success(c, fiber.StatusCreated, "Url record was created", h.toResponse(link))
}

// ListLinks handles GET /api/urls
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	links, err := h.linkService.ListLinks(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, h.logger, "list links", err)
	}

	response := make([]LinkResponse, len(links))
	for i := range links {
		response[i] = h.toResponse(&links[i])
	}
	return view.Success(c, fiber.StatusOK, "Urls were successfully retrieved", response)
}

// DeleteLink handles DELETE /api/delete_url/:id
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.linkService.DeleteLink(c.UserContext(), middleware.GetUserID(c), id); err != nil {
		return respondError(c, h.logger, "delete link", err)
	}
	return view.Success(c, fiber.StatusOK, "Url record was deleted", nil)
}

// Analytics handles GET /api/analytics/:shortCode
func (h *APIHandler) Analytics(c *fiber.Ctx) error {
	report, err := h.analytics.Report(c.UserContext(), middleware.GetUserID(c), c.Params("shortCode"))
	if err != nil {
		return respondError(c, h.logger, "analytics", err)
	}
	return view.Success(c, fiber.StatusOK, "Analytics were successfully retrieved", report)
}

// QRCode handles GET /api/qrcode/:shortCode and returns a PNG of the short URL.
func (h *APIHandler) QRCode(c *fiber.Ctx) error {
	link, err := h.linkService.GetLink(c.UserContext(), middleware.GetUserID(c), c.Params("shortCode"))
	if err != nil {
		return respondError(c, h.logger, "qrcode", err)
	}

	png, err := qrcode.Encode(h.shortURL(link.ShortCode), qrcode.Medium, qrCodeSize)
	if err != nil {
		return respondError(c, h.logger, "qrcode", fmt.Errorf("encode qr code: %w", err))
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.png"`, link.ShortCode))
	return c.Status(fiber.StatusOK).Send(png)
}
