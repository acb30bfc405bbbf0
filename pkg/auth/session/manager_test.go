package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func (m *mockStore) KioskSessionKey(churchID string) string {
	return fmt.Sprintf("kiosk:%s", churchID)
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}

	ctx := context.Background()
	accessID := "access-123"
	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := store.data[store.AccessSessionKey(accessID)]; stored != token {
		t.Fatalf("expected stored token %q, got %q", token, stored)
	}

	if _, _, err := manager.Rotate(ctx, accessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey(accessID)]; exists {
		t.Fatalf("old access key left behind")
	}
	if stored := store.data[store.AccessSessionKey(newAccessID)]; stored != newToken {
		t.Fatalf("expected new token stored, got %q", stored)
	}
}

func TestManagerHasSession(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	ctx := context.Background()
	ok, err := manager.HasSession(ctx, "missing")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if ok {
		t.Fatal("expected no session")
	}

	if _, err := manager.Generate(ctx, "access-9"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err = manager.HasSession(ctx, "access-9")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !ok {
		t.Fatal("expected live session")
	}
}

func TestKioskStartValidateEnd(t *testing.T) {
	store := newMockStore()
	kiosk := &Kiosk{
		store:      store,
		keyer:      store,
		defaultTTL: time.Hour,
		maxTTL:     4 * time.Hour,
	}

	ctx := context.Background()
	churchID := "church-1"

	token, expiresAt, err := kiosk.Start(ctx, churchID, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry")
	}

	if err := kiosk.Validate(ctx, churchID, token); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := kiosk.Validate(ctx, churchID, "forged"); !errors.Is(err, ErrKioskSessionExpired) {
		t.Fatalf("expected kiosk session error, got %v", err)
	}

	// Restarting a session replaces the prior token.
	replacement, _, err := kiosk.Start(ctx, churchID, 30*time.Minute)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := kiosk.Validate(ctx, churchID, token); !errors.Is(err, ErrKioskSessionExpired) {
		t.Fatalf("expected stale token rejection, got %v", err)
	}
	if err := kiosk.Validate(ctx, churchID, replacement); err != nil {
		t.Fatalf("validate replacement: %v", err)
	}

	if err := kiosk.End(ctx, churchID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := kiosk.Validate(ctx, churchID, replacement); !errors.Is(err, ErrKioskSessionExpired) {
		t.Fatalf("expected ended session rejection, got %v", err)
	}
}
