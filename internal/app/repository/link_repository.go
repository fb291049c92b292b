package repository

import (
	"context"
	"errors"

	"github.com/sifan077/LinkPulse/internal/app/model"
	"gorm.io/gorm"
)

// LinkRepository defines the data access contract for short links.
type LinkRepository interface {
	// Create inserts the link; ErrShortCodeTaken when the code collides.
	Create(ctx context.Context, link *model.ShortLink) error
	GetByCode(ctx context.Context, code string) (*model.ShortLink, error)
	GetByCodeForOwner(ctx context.Context, ownerID, code string) (*model.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error)
	// DeleteForOwner removes the link and its click events in one transaction.
	DeleteForOwner(ctx context.Context, ownerID, id string) error
	// RecordClick bumps the counter and stores the event atomically.
	RecordClick(ctx context.Context, linkID string, event *model.ClickEvent) error
	ListCodes(ctx context.Context) ([]string, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrShortCodeTaken
		}
		return err
	}
	return nil
}

func (r *linkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	return r.first(r.db.WithContext(ctx).Where("short_code = ?", code))
}

func (r *linkRepository) GetByCodeForOwner(ctx context.Context, ownerID, code string) (*model.ShortLink, error) {
	return r.first(r.db.WithContext(ctx).Where("short_code = ? AND user_id = ?", code, ownerID))
}

func (r *linkRepository) first(q *gorm.DB) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := q.First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	result := []model.ShortLink{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) DeleteForOwner(ctx context.Context, ownerID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link model.ShortLink
		err := tx.Select("id").Where("id = ? AND user_id = ?", id, ownerID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Where("link_id = ?", link.ID).Delete(&model.ClickEvent{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.ShortLink{}, "id = ?", link.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLinkNotFound
		}
		return nil
	})
}

func (r *linkRepository) RecordClick(ctx context.Context, linkID string, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row-level increment: concurrent redirects serialize on the row lock.
		result := tx.Model(&model.ShortLink{}).
			Where("id = ?", linkID).
			Updates(map[string]interface{}{
				"click_count":     gorm.Expr("click_count + ?", 1),
				"last_clicked_at": event.ClickedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLinkNotFound
		}

		event.LinkID = linkID
		return tx.Create(event).Error
	})
}

func (r *linkRepository) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&model.ShortLink{}).Pluck("short_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
