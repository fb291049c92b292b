package logger

import (
	"testing"

	"github.com/sifan077/LinkPulse/config"
	"go.uber.org/zap/zapcore"
)

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNew_InvalidEncoding(t *testing.T) {
	if _, err := New(Config{Encoding: "xml"}); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestNew_AppliesLevel(t *testing.T) {
	l, err := New(Config{Level: "WARN", Service: "linkpulse"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn should be enabled at warn level")
	}
}

func TestParseLevel_Defaults(t *testing.T) {
	tests := []struct {
		raw  string
		dev  bool
		want zapcore.Level
	}{
		{"", true, zapcore.DebugLevel},
		{"", false, zapcore.InfoLevel},
		{" Error ", false, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.raw, tt.dev)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q, %v) = %v, want %v", tt.raw, tt.dev, got, tt.want)
		}
	}
}

func TestFromApp(t *testing.T) {
	cfg := FromApp(config.AppConfig{Env: "production", LogLevel: "warn"}, "svc")
	if cfg.Development {
		t.Fatal("production env should not be development")
	}
	if cfg.Level != "warn" || cfg.Service != "svc" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestL_FallsBackWithoutInit(t *testing.T) {
	if L() == nil {
		t.Fatal("expected a usable logger")
	}
	if Named("worker") == nil {
		t.Fatal("expected a named child logger")
	}
}
