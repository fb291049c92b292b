package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/LinkPulse/internal/app/auth"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"go.uber.org/zap"
)

type authenticatorFunc func(ctx context.Context, token string) (*auth.Claims, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	return f(ctx, token)
}

func TestRequireAuth(t *testing.T) {
	authenticator := authenticatorFunc(func(ctx context.Context, token string) (*auth.Claims, error) {
		switch token {
		case "valid":
			return &auth.Claims{UserID: "user-1"}, nil
		case "store-down":
			return nil, errors.New("redis: connection refused")
		default:
			return nil, service.ErrUnauthorized
		}
	})

	app := fiber.New()
	app.Get("/private", RequireAuth(authenticator, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c) + "|" + GetClaims(c).UserID)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", want: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "store unavailable", header: "Bearer store-down", want: http.StatusServiceUnavailable},
		{name: "valid", header: "bearer valid", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	cfg := RateLimitConfig{MaxRequests: 2, Window: time.Minute, KeyPrefix: "test", TrustForwarded: true}
	app := fiber.New()
	app.Use(RateLimit(client, cfg, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	hit := func(ip string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := hit("203.0.113.1"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
	resp := hit("203.0.113.1")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected remaining 0, got %q", resp.Header.Get("X-RateLimit-Remaining"))
	}
	if hit("203.0.113.2").StatusCode != http.StatusOK {
		t.Fatal("expected other client to be unaffected")
	}

	mr.FastForward(time.Minute + time.Second)
	if hit("203.0.113.1").StatusCode != http.StatusOK {
		t.Fatal("expected window to reset")
	}

	mr.Close()
	if hit("203.0.113.1").StatusCode != http.StatusOK {
		t.Fatal("expected fail-open when redis is down")
	}
}

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(), Recovery(zap.NewNop()))
	app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, _ := app.Test(req)
	if resp.Header.Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected caller id to be kept, got %q", resp.Header.Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
	resp, _ = app.Test(req)
	if got := resp.Header.Get(RequestIDHeader); len(got) != 36 {
		t.Fatalf("expected oversized id to be replaced by a uuid, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(""))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodOptions, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response %d %q", resp.StatusCode, resp.Header.Get("Access-Control-Allow-Origin"))
	}
}
