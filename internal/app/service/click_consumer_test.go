package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sifan077/LinkPulse/internal/app/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestClickConsumer_Process(t *testing.T) {
	valid, _ := json.Marshal(model.ClickMessage{EventID: "e1", LinkID: "l1", ShortCode: "abcDEF123456", ClickedAt: time.Now()})
	missingIDs, _ := json.Marshal(model.ClickMessage{LinkID: "l1"})

	tests := []struct {
		name    string
		data    []byte
		sinkErr error
		want    ackDecision
	}{
		{name: "valid", data: valid, want: ackMessage},
		{name: "malformed json", data: []byte("{"), want: termMessage},
		{name: "missing identifiers", data: missingIDs, want: termMessage},
		{name: "sink failure", data: valid, sinkErr: errors.New("disk full"), want: nakMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := func(ctx context.Context, msg model.ClickMessage) error { return tt.sinkErr }
			c := NewClickConsumer(nil, zap.NewNop(), sink)
			if got := c.process(context.Background(), tt.data); got != tt.want {
				t.Fatalf("expected decision %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAuditSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := AuditSink(zap.New(core))

	err := sink(context.Background(), model.ClickMessage{EventID: "e1", ShortCode: "abcDEF123456", Country: "Kenya"})
	if err != nil {
		t.Fatalf("sink returned error: %v", err)
	}
	entries := logs.FilterMessage("click").All()
	if len(entries) != 1 {
		t.Fatalf("expected one audit line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["short_code"] != "abcDEF123456" || fields["country"] != "Kenya" {
		t.Fatalf("unexpected audit fields %v", fields)
	}
}
