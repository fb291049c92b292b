package service

import (
	"context"
	"time"

	"github.com/sifan077/LinkPulse/internal/app/auth"
	"github.com/sifan077/LinkPulse/internal/app/model"
	"github.com/sifan077/LinkPulse/internal/app/repository"
	"go.uber.org/zap"
)

type mockLinkRepository struct {
	createFn      func(ctx context.Context, link *model.ShortLink) error
	getFn         func(ctx context.Context, code string) (*model.ShortLink, error)
	getForOwnerFn func(ctx context.Context, ownerID, code string) (*model.ShortLink, error)
	listFn        func(ctx context.Context, ownerID string) ([]model.ShortLink, error)
	deleteFn      func(ctx context.Context, ownerID, id string) error
	recordClickFn func(ctx context.Context, linkID string, event *model.ClickEvent) error
	listCodesFn   func(ctx context.Context) ([]string, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	if m.getFn != nil {
		return m.getFn(ctx, code)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) GetByCodeForOwner(ctx context.Context, ownerID, code string) (*model.ShortLink, error) {
	if m.getForOwnerFn != nil {
		return m.getForOwnerFn(ctx, ownerID, code)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockLinkRepository) DeleteForOwner(ctx context.Context, ownerID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, id)
	}
	return nil
}

func (m *mockLinkRepository) RecordClick(ctx context.Context, linkID string, event *model.ClickEvent) error {
	if m.recordClickFn != nil {
		return m.recordClickFn(ctx, linkID, event)
	}
	return nil
}

func (m *mockLinkRepository) ListCodes(ctx context.Context) ([]string, error) {
	if m.listCodesFn != nil {
		return m.listCodesFn(ctx)
	}
	return nil, nil
}

type mockClickEventRepository struct {
	listFn func(ctx context.Context, linkID string) ([]model.ClickEvent, error)
}

func (m *mockClickEventRepository) ListByLink(ctx context.Context, linkID string) ([]model.ClickEvent, error) {
	if m.listFn != nil {
		return m.listFn(ctx, linkID)
	}
	return nil, nil
}

func (m *mockClickEventRepository) CountByLink(ctx context.Context, linkID string) (int64, error) {
	events, err := m.ListByLink(ctx, linkID)
	return int64(len(events)), err
}

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id string) (*model.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	updateFn        func(ctx context.Context, user *model.User) error
	deleteFn        func(ctx context.Context, id string) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockGeoLocator struct {
	locateFn func(ctx context.Context, ip string) (*model.GeoInfo, error)
}

func (m *mockGeoLocator) Locate(ctx context.Context, ip string) (*model.GeoInfo, error) {
	return m.locateFn(ctx, ip)
}

type mockRevoker struct {
	revokeFn    func(ctx context.Context, tokenID string, expiresAt time.Time) error
	isRevokedFn func(ctx context.Context, tokenID string) (bool, error)
}

func (m *mockRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, tokenID, expiresAt)
	}
	return nil
}

func (m *mockRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.isRevokedFn != nil {
		return m.isRevokedFn(ctx, tokenID)
	}
	return false, nil
}

var _ TokenIssuer = (*auth.JWTManager)(nil)
var _ TokenRevoker = (*auth.RevocationStore)(nil)

type sequenceGenerator struct {
	codes []string
	next  int
}

func (g *sequenceGenerator) Generate() (string, error) {
	code := g.codes[g.next%len(g.codes)]
	g.next++
	return code, nil
}

func zapNop() *zap.Logger { return zap.NewNop() }
