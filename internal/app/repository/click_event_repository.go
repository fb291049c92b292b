package repository

import (
	"context"

	"github.com/sifan077/LinkPulse/internal/app/model"
	"gorm.io/gorm"
)

// ClickEventRepository defines the data access contract for click events.
type ClickEventRepository interface {
	ListByLink(ctx context.Context, linkID string) ([]model.ClickEvent, error)
	CountByLink(ctx context.Context, linkID string) (int64, error)
}

type clickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository returns a GORM-backed ClickEventRepository.
func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &clickEventRepository{db: db}
}

// ListByLink returns every event of the link, newest first.
func (r *clickEventRepository) ListByLink(ctx context.Context, linkID string) ([]model.ClickEvent, error) {
	events := []model.ClickEvent{}
	err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("clicked_at DESC").
		Find(&events).Error
	return events, err
}

func (r *clickEventRepository) CountByLink(ctx context.Context, linkID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ClickEvent{}).Where("link_id = ?", linkID).Count(&n).Error
	return n, err
}
