package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sifan077/LinkPulse/config"
	"github.com/sifan077/LinkPulse/internal/app/service"
	"github.com/sifan077/LinkPulse/internal/infra/logger"
	infraNATS "github.com/sifan077/LinkPulse/internal/infra/nats"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.FromApp(cfg.App, "linkpulse-click-logger"))
	defer func() { _ = logger.Sync() }()

	natsConn, js, err := infraNATS.Connect(cfg.NATS, "linkpulse-click-logger")
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully",
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port))

	consumer := service.NewClickConsumer(js, log, service.AuditSink(logger.Named("audit")))
	if err := consumer.Run(ctx); err != nil {
		log.Fatal("Click consumer failed", zap.Error(err))
	}
}
