package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sifan077/LinkPulse/internal/app/model"
	infraPostgres "github.com/sifan077/LinkPulse/internal/infra/postgres"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// setupDB starts a disposable Postgres and migrates the schema.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := infraPostgres.OpenGorm(connStr, nil)
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	if err := infraPostgres.AutoMigrate(ctx, db, &model.User{}, &model.ShortLink{}, &model.ClickEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, repo UserRepository, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: "x", IsActive: true}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestRepositories_Postgres(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	links := NewLinkRepository(db)
	events := NewClickEventRepository(db)

	owner := createUser(t, users, "owner")
	other := createUser(t, users, "other")

	t.Run("duplicate username", func(t *testing.T) {
		err := users.Create(ctx, &model.User{Username: "owner", Email: "x@example.com", PasswordHash: "x"})
		if !errors.Is(err, ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	t.Run("inactive user keeps is_active false", func(t *testing.T) {
		u := &model.User{Username: "dormant", Email: "dormant@example.com", PasswordHash: "x", IsActive: false}
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := users.GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.IsActive {
			t.Fatal("expected stored user to stay inactive")
		}
	})

	t.Run("over-long click fields are rejected by the schema", func(t *testing.T) {
		link := &model.ShortLink{UserID: owner.ID, LongURL: "https://f.example.com", ShortCode: "FFFFFFFFFFFF"}
		if err := links.Create(ctx, link); err != nil {
			t.Fatalf("create: %v", err)
		}
		long := strings.Repeat("x", model.ClickAgentPartSize+1)
		if err := links.RecordClick(ctx, link.ID, &model.ClickEvent{ClickedAt: time.Now(), Browser: &long}); err == nil {
			t.Fatal("expected varchar overflow to fail the insert")
		}
		got, err := links.GetByCode(ctx, link.ShortCode)
		if err != nil {
			t.Fatalf("GetByCode: %v", err)
		}
		if got.ClickCount != 0 {
			t.Fatalf("expected failed insert to roll back the counter, got %d", got.ClickCount)
		}
	})

	t.Run("short code unique", func(t *testing.T) {
		first := &model.ShortLink{UserID: owner.ID, LongURL: "https://a.example.com", ShortCode: "AAAAAAAAAAAA"}
		if err := links.Create(ctx, first); err != nil {
			t.Fatalf("create: %v", err)
		}
		dup := &model.ShortLink{UserID: other.ID, LongURL: "https://b.example.com", ShortCode: "AAAAAAAAAAAA"}
		if err := links.Create(ctx, dup); !errors.Is(err, ErrShortCodeTaken) {
			t.Fatalf("expected ErrShortCodeTaken, got %v", err)
		}
	})

	t.Run("concurrent clicks are not lost", func(t *testing.T) {
		link := &model.ShortLink{UserID: owner.ID, LongURL: "https://c.example.com", ShortCode: "CCCCCCCCCCCC"}
		if err := links.Create(ctx, link); err != nil {
			t.Fatalf("create: %v", err)
		}

		const n = 25
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- links.RecordClick(ctx, link.ID, &model.ClickEvent{ClickedAt: time.Now().UTC()})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("RecordClick: %v", err)
			}
		}

		got, err := links.GetByCode(ctx, link.ShortCode)
		if err != nil {
			t.Fatalf("GetByCode: %v", err)
		}
		if got.ClickCount != n {
			t.Fatalf("expected click_count %d, got %d", n, got.ClickCount)
		}
		if got.LastClickedAt == nil {
			t.Fatal("expected last_clicked_at to be set")
		}
		count, err := events.CountByLink(ctx, link.ID)
		if err != nil {
			t.Fatalf("CountByLink: %v", err)
		}
		if count != n {
			t.Fatalf("expected %d events, got %d", n, count)
		}
	})

	t.Run("record click on missing link", func(t *testing.T) {
		err := links.RecordClick(ctx, "00000000-0000-0000-0000-000000000000", &model.ClickEvent{ClickedAt: time.Now()})
		if !errors.Is(err, ErrLinkNotFound) {
			t.Fatalf("expected ErrLinkNotFound, got %v", err)
		}
	})

	t.Run("delete cascades events and checks owner", func(t *testing.T) {
		link := &model.ShortLink{UserID: owner.ID, LongURL: "https://d.example.com", ShortCode: "DDDDDDDDDDDD"}
		if err := links.Create(ctx, link); err != nil {
			t.Fatalf("create: %v", err)
		}
		for i := 0; i < 3; i++ {
			if err := links.RecordClick(ctx, link.ID, &model.ClickEvent{ClickedAt: time.Now()}); err != nil {
				t.Fatalf("RecordClick: %v", err)
			}
		}

		if err := links.DeleteForOwner(ctx, other.ID, link.ID); !errors.Is(err, ErrLinkNotFound) {
			t.Fatalf("expected ErrLinkNotFound for foreign owner, got %v", err)
		}
		if err := links.DeleteForOwner(ctx, owner.ID, link.ID); err != nil {
			t.Fatalf("DeleteForOwner: %v", err)
		}

		count, err := events.CountByLink(ctx, link.ID)
		if err != nil {
			t.Fatalf("CountByLink: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected events to be deleted, got %d", count)
		}
		if _, err := links.GetByCodeForOwner(ctx, owner.ID, link.ShortCode); !errors.Is(err, ErrLinkNotFound) {
			t.Fatalf("expected ErrLinkNotFound after delete, got %v", err)
		}
	})

	t.Run("list by owner and codes", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			link := &model.ShortLink{UserID: other.ID, LongURL: "https://e.example.com", ShortCode: fmt.Sprintf("EEEEEEEEEEE%d", i)}
			if err := links.Create(ctx, link); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		list, err := links.ListByOwner(ctx, other.ID)
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 links, got %d", len(list))
		}
		codes, err := links.ListCodes(ctx)
		if err != nil {
			t.Fatalf("ListCodes: %v", err)
		}
		if len(codes) < 4 {
			t.Fatalf("expected at least 4 codes, got %d", len(codes))
		}
	})

	t.Run("deleting a user cascades links", func(t *testing.T) {
		if err := users.Delete(ctx, other.ID); err != nil {
			t.Fatalf("Delete user: %v", err)
		}
		list, err := links.ListByOwner(ctx, other.ID)
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected links to be removed with their owner, got %d", len(list))
		}
	})
}
