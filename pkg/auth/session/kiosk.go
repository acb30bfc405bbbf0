package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/churchconnect/churchconnect-backend/pkg/config"
	redisclient "github.com/churchconnect/churchconnect-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

var ErrKioskSessionExpired = errors.New("kiosk session expired or not started")

type kioskKeyer interface {
	KioskSessionKey(churchID string) string
}

// Kiosk manages the time-boxed check-in sessions a church opens on shared
// devices. A session token lives in Redis under the church key and expires
// on its own, so a kiosk left unattended stops accepting check-ins.
type Kiosk struct {
	store      sessionStore
	keyer      kioskKeyer
	defaultTTL time.Duration
	maxTTL     time.Duration
}

// NewKiosk constructs a kiosk session manager backed by Redis.
func NewKiosk(client *redisclient.Client, cfg config.KioskConfig) (*Kiosk, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	defaultTTL := time.Duration(cfg.DefaultSessionTimeoutMinutes) * time.Minute
	maxTTL := time.Duration(cfg.MaxSessionTimeoutMinutes) * time.Minute
	if defaultTTL <= 0 || maxTTL <= 0 {
		return nil, fmt.Errorf("kiosk session timeouts must be positive")
	}
	if defaultTTL > maxTTL {
		return nil, fmt.Errorf("kiosk default timeout (%s) exceeds max (%s)", defaultTTL, maxTTL)
	}
	return &Kiosk{
		store:      client,
		keyer:      client,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
	}, nil
}

// Start opens a kiosk session for the church and returns the session token
// with its expiry. A zero timeout takes the configured default; anything
// above the max is clamped. Starting again replaces the previous session.
func (k *Kiosk) Start(ctx context.Context, churchID string, timeout time.Duration) (string, time.Time, error) {
	if churchID == "" {
		return "", time.Time{}, fmt.Errorf("church id is required")
	}
	ttl := timeout
	if ttl <= 0 {
		ttl = k.defaultTTL
	}
	if ttl > k.maxTTL {
		ttl = k.maxTTL
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", time.Time{}, err
	}
	if err := k.store.Set(ctx, k.keyer.KioskSessionKey(churchID), token, ttl); err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(ttl), nil
}

// Validate checks that the presented token matches the live session.
func (k *Kiosk) Validate(ctx context.Context, churchID, token string) error {
	if churchID == "" || token == "" {
		return ErrKioskSessionExpired
	}
	stored, err := k.store.Get(ctx, k.keyer.KioskSessionKey(churchID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return ErrKioskSessionExpired
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return ErrKioskSessionExpired
	}
	return nil
}

// End closes the church's kiosk session immediately.
func (k *Kiosk) End(ctx context.Context, churchID string) error {
	if churchID == "" {
		return fmt.Errorf("church id is required")
	}
	return k.store.Del(ctx, k.keyer.KioskSessionKey(churchID))
}
