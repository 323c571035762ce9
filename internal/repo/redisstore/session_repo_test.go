package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"civiclens_bot/internal/domain/enums"
	"civiclens_bot/internal/domain/model"
)

func newTestRepo(t *testing.T) (*SessionRepo, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	return NewSessionRepo(NewClient(server.Addr(), "", 0)), server
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	saved := model.Session{
		Token:     "bearer-token",
		UserID:    17,
		Username:  "reporter",
		Role:      enums.RoleAdmin,
		ExpiresAt: expiry,
	}
	if err := repo.Save(ctx, 100, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token != saved.Token || got.UserID != saved.UserID || got.Username != saved.Username {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Role != enums.RoleAdmin {
		t.Fatalf("unexpected role: %q", got.Role)
	}
	if !got.ExpiresAt.Equal(expiry) {
		t.Fatalf("unexpected expiry: %v", got.ExpiresAt)
	}
}

func TestSaveRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	if err := repo.Save(context.Background(), 1, model.Session{}); err == nil {
		t.Fatal("expected an error for an empty token")
	}
}

func TestSaveReplacesPreviousSession(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first := model.Session{Token: "first", Username: "old", Role: enums.RoleCitizen}
	if err := repo.Save(ctx, 7, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := model.Session{Token: "second", Role: enums.RoleCitizen}
	if err := repo.Save(ctx, 7, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := repo.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token != "second" {
		t.Fatalf("unexpected token: %q", got.Token)
	}
	// The username field from the first session must not survive the swap.
	if got.Username != "" {
		t.Fatalf("stale username leaked: %q", got.Username)
	}
}

func TestSaveSetsTTLFromExpiry(t *testing.T) {
	t.Parallel()

	repo, server := newTestRepo(t)
	ctx := context.Background()

	session := model.Session{
		Token:     "bearer-token",
		Role:      enums.RoleCitizen,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	if err := repo.Save(ctx, 5, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	ttl := server.TTL(sessionKey(5))
	if ttl <= 0 || ttl > 30*time.Minute {
		t.Fatalf("unexpected ttl: %v", ttl)
	}

	server.FastForward(31 * time.Minute)
	if _, err := repo.Get(ctx, 5); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after expiry, got %v", err)
	}
}

func TestGetMissingSession(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	if _, err := repo.Get(context.Background(), 404); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, 2, model.Session{Token: "tok", Role: enums.RoleCitizen}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, 2); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
