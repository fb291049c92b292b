package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		begin   time.Time
		err     error
		wantMsg string
		wantLvl zapcore.Level
	}{
		{"query error", gormlogger.Warn, time.Now(), errors.New("boom"), "Query failed", zapcore.ErrorLevel},
		{"slow query", gormlogger.Warn, time.Now().Add(-time.Second), nil, "Slow query", zapcore.WarnLevel},
		{"not found is quiet", gormlogger.Warn, time.Now(), gorm.ErrRecordNotFound, "", 0},
		{"fast query below info", gormlogger.Warn, time.Now(), nil, "", 0},
		{"silent", gormlogger.Silent, time.Now().Add(-time.Second), errors.New("boom"), "", 0},
		{"info traces everything", gormlogger.Info, time.Now(), nil, "Query", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), gormlogger.Warn).LogMode(tt.level)

			l.Trace(context.Background(), tt.begin, query, tt.err)

			entries := logs.All()
			if tt.wantMsg == "" {
				if len(entries) != 0 {
					t.Fatalf("expected no log entries, got %d", len(entries))
				}
				return
			}
			if len(entries) != 1 {
				t.Fatalf("expected one entry, got %d", len(entries))
			}
			if entries[0].Message != tt.wantMsg || entries[0].Level != tt.wantLvl {
				t.Fatalf("unexpected entry %q at %v", entries[0].Message, entries[0].Level)
			}
			if entries[0].ContextMap()["sql"] != "SELECT 1" {
				t.Fatalf("expected sql field, got %v", entries[0].ContextMap())
			}
		})
	}
}

func TestGormLogger_LogModeDoesNotMutateReceiver(t *testing.T) {
	base := NewGormLogger(zap.NewNop(), gormlogger.Warn)
	_ = base.LogMode(gormlogger.Info)
	if base.level != gormlogger.Warn {
		t.Fatalf("expected receiver level to stay Warn, got %v", base.level)
	}
}
