package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/LinkPulse/config"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/http/handler"
	"github.com/sifan077/LinkPulse/internal/http/middleware"
	"github.com/sifan077/LinkPulse/internal/http/view"
	"go.uber.org/zap"
)

// Dependencies bundles what the HTTP server needs. Postgres and Redis are
// optional and only feed health checks and rate limiting.
type Dependencies struct {
	Logger    *zap.Logger
	Config    *config.Config
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	Links     service.LinkService
	Analytics service.AnalyticsService
	Auth      service.AuthService
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = &config.Config{}
	}

	app := fiber.New(fiber.Config{
		AppName:               "LinkPulse",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	cfg := s.deps.Config

	s.app.Use(
		middleware.RequestID(),
		middleware.Recovery(s.deps.Logger),
		middleware.Logger(s.deps.Logger),
		middleware.Metrics(),
		middleware.CORS(""),
	)

	if s.deps.Redis != nil && cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		if cfg.RateLimit.MaxRequests > 0 {
			rl.MaxRequests = cfg.RateLimit.MaxRequests
		}
		if cfg.RateLimit.Window > 0 {
			rl.Window = cfg.RateLimit.Window
		}
		rl.TrustForwarded = cfg.HTTP.TrustForwardedFor
		s.app.Use(middleware.RateLimit(s.deps.Redis, rl, s.deps.Logger))
	}
}

func (s *Server) registerRoutes() {
	cfg := s.deps.Config
	requireAuth := middleware.RequireAuth(s.deps.Auth, s.deps.Logger)

	handler.NewHealthHandler(s.healthChecks()).Register(s.app)

	handler.NewAuthHandler(handler.AuthDeps{
		Logger:      s.deps.Logger,
		AuthService: s.deps.Auth,
	}).Register(s.app, requireAuth)

	handler.NewRedirectHandler(handler.RedirectDeps{
		Logger:            s.deps.Logger,
		LinkService:       s.deps.Links,
		TrustForwardedFor: cfg.HTTP.TrustForwardedFor,
	}).Register(s.app)

	handler.NewAPIHandler(handler.APIDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.Links,
		Analytics:   s.deps.Analytics,
		BaseURL:     cfg.HTTP.BaseURL,
	}).Register(s.app, requireAuth)
}

func (s *Server) healthChecks() map[string]handler.HealthCheck {
	checks := make(map[string]handler.HealthCheck)
	if s.deps.Postgres != nil {
		checks["postgres"] = s.deps.Postgres.Ping
	}
	if s.deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return s.deps.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// in the same envelope as everything else.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return view.Error(c, fe.Code, fe.Message)
		}
		logger.Error("unhandled error",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.GetRequestID(c)))
		return view.Error(c, fiber.StatusInternalServerError, "An internal error occurred.")
	}
}
