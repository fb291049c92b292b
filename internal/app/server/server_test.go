package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sifan077/LinkPulse/config"
	"github.com/sifan077/LinkPulse/internal/app/auth"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/http/view"
)

type stubAuth struct{ service.AuthService }

func (stubAuth) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	return nil, service.ErrUnauthorized
}

type stubLinks struct{ service.LinkService }

func (stubLinks) Resolve(ctx context.Context, code string, click service.ClickContext) (string, error) {
	if code == "abcDEF123456" {
		return "https://example.com", nil
	}
	return "", service.ErrLinkNotFound
}

func newTestServer() *Server {
	return New(Dependencies{
		Config: &config.Config{HTTP: config.HTTPConfig{BaseURL: "http://localhost:8080"}},
		Links:  stubLinks{},
		Auth:   stubAuth{},
	})
}

func TestServer_Routes(t *testing.T) {
	app := newTestServer().App()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "health without backends", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "redirect", method: http.MethodGet, path: "/api/redirect_url/abcDEF123456", want: http.StatusFound},
		{name: "redirect unknown", method: http.MethodGet, path: "/api/redirect_url/missing", want: http.StatusNotFound},
		{name: "shorten requires auth", method: http.MethodPost, path: "/api/shorten", want: http.StatusUnauthorized},
		{name: "analytics requires auth", method: http.MethodGet, path: "/api/analytics/abc", want: http.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Fatal("expected request id header")
			}
		})
	}
}

func TestServer_UnknownRouteUsesEnvelope(t *testing.T) {
	app := newTestServer().App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var env view.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != view.StatusError {
		t.Fatalf("expected error envelope, got %+v", env)
	}
}

