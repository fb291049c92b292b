package service

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/LinkPulse/internal/app/model"
)

// ClickPublisher publishes recorded clicks to NATS JetStream
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Publish sends msg to the click stream. The event id doubles as the
// JetStream dedupe id so retried publishes are stored once.
func (p *ClickPublisher) Publish(msg model.ClickMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal click message: %w", err)
	}

	opts := []nats.PubOpt{}
	if msg.EventID != "" {
		opts = append(opts, nats.MsgId(msg.EventID))
	}
	if _, err := p.js.Publish(model.ClickStreamSubject, data, opts...); err != nil {
		return fmt.Errorf("publish click message: %w", err)
	}
	return nil
}
