package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sifan077/LinkPulse/internal/app/repository"
	"go.uber.org/zap"
)

// CodeFilterRefresher periodically rebuilds the code filter from storage so
// codes created by other instances are seen and deleted ones drop out.
type CodeFilterRefresher struct {
	repo     repository.LinkRepository
	filter   *CodeFilter
	logger   *zap.Logger
	interval time.Duration
}

// NewCodeFilterRefresher creates a new refresher
func NewCodeFilterRefresher(repo repository.LinkRepository, filter *CodeFilter, logger *zap.Logger, interval time.Duration) *CodeFilterRefresher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CodeFilterRefresher{
		repo:     repo,
		filter:   filter,
		logger:   logger,
		interval: interval,
	}
}

// Reload replaces the filter contents with every stored short code.
func (r *CodeFilterRefresher) Reload(ctx context.Context) error {
	codes, err := r.repo.ListCodes(ctx)
	if err != nil {
		return fmt.Errorf("list short codes: %w", err)
	}
	r.filter.Reset(codes)
	r.logger.Debug("code filter reloaded", zap.Int("codes", len(codes)))
	return nil
}

// Start runs Reload on every tick until ctx is cancelled.
func (r *CodeFilterRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("code filter refresher started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("code filter refresher stopped")
			return
		case <-ticker.C:
			if err := r.Reload(ctx); err != nil {
				r.logger.Error("failed to reload code filter", zap.Error(err))
			}
		}
	}
}
