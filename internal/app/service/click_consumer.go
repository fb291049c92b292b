package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/LinkPulse/internal/app/model"
	natsclient "github.com/sifan077/LinkPulse/internal/infra/nats"
	"go.uber.org/zap"
)

const (
	clickFetchBatch   = 10
	clickFetchWait    = 5 * time.Second
	clickFetchBackoff = time.Second
)

// ClickSink handles one decoded click message. Returning an error redelivers it.
type ClickSink func(ctx context.Context, msg model.ClickMessage) error

type ackDecision int

const (
	ackMessage ackDecision = iota
	nakMessage
	termMessage
)

// ClickConsumer consumes click events from NATS JetStream
type ClickConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	sink   ClickSink
}

// NewClickConsumer creates a new click event consumer
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, sink ClickSink) *ClickConsumer {
	return &ClickConsumer{js: js, logger: logger, sink: sink}
}

// AuditSink writes one structured log line per click.
func AuditSink(logger *zap.Logger) ClickSink {
	return func(ctx context.Context, msg model.ClickMessage) error {
		logger.Info("click",
			zap.String("event_id", msg.EventID),
			zap.String("link_id", msg.LinkID),
			zap.String("short_code", msg.ShortCode),
			zap.Time("clicked_at", msg.ClickedAt),
			zap.String("ip", msg.IPAddress),
			zap.String("country", msg.Country),
			zap.String("city", msg.City),
			zap.String("referrer", msg.Referrer),
			zap.String("device_type", msg.DeviceType),
		)
		return nil
	}
}

// Run binds the durable consumer and processes messages until ctx is cancelled.
func (c *ClickConsumer) Run(ctx context.Context) error {
	if err := natsclient.EnsureClickStream(c.js); err != nil {
		return err
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName,
		nats.BindStream(model.ClickStreamName),
		nats.ManualAck(),
		nats.AckExplicit(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	c.logger.Info("click consumer started", zap.String("consumer", model.ClickConsumerName))

	for {
		if ctx.Err() != nil {
			c.logger.Info("click consumer stopped")
			return nil
		}

		msgs, err := sub.Fetch(clickFetchBatch, nats.MaxWait(clickFetchWait))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(clickFetchBackoff):
			}
			continue
		}

		for _, msg := range msgs {
			c.settle(msg, c.process(ctx, msg.Data))
		}
	}
}

func (c *ClickConsumer) process(ctx context.Context, data []byte) ackDecision {
	var click model.ClickMessage
	if err := json.Unmarshal(data, &click); err != nil {
		c.logger.Error("failed to unmarshal click message", zap.Error(err))
		return termMessage
	}
	if click.EventID == "" || click.ShortCode == "" {
		c.logger.Error("click message missing identifiers", zap.ByteString("payload", data))
		return termMessage
	}

	if err := c.sink(ctx, click); err != nil {
		c.logger.Error("failed to handle click message",
			zap.String("event_id", click.EventID),
			zap.String("short_code", click.ShortCode),
			zap.Error(err))
		return nakMessage
	}
	return ackMessage
}

func (c *ClickConsumer) settle(msg *nats.Msg, decision ackDecision) {
	var err error
	switch decision {
	case termMessage:
		err = msg.Term()
	case nakMessage:
		err = msg.Nak()
	default:
		err = msg.Ack()
	}
	if err != nil {
		c.logger.Warn("failed to settle click message", zap.Error(err))
	}
}
