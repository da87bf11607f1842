// Package waitlist records pre-launch signups. The primary backend is
// Redis; a SQL-backed fallback keeps the endpoint working when no Redis
// is configured.
package waitlist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walletpilot/pilot/internal/store"
)

// List is the waitlist backend. Add reports whether the email was newly
// added; re-submitting an existing email is not an error.
type List interface {
	Add(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Emails(ctx context.Context) ([]string, error)
}

const (
	setKey    = "waitlist:emails"
	recordKey = "waitlist:%s"
	dialWait  = 3 * time.Second
)

// RedisList stores signups in a Redis set plus a per-email hash carrying
// the signup timestamp.
type RedisList struct {
	client *redis.Client
}

// NewRedis connects to Redis at the given URL and pings it before
// returning, so a bad URL fails at startup rather than on first signup.
func NewRedis(ctx context.Context, url string) (*RedisList, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, dialWait)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisList{client: client}, nil
}

func (l *RedisList) Add(ctx context.Context, email string) (bool, error) {
	added, err := l.client.SAdd(ctx, setKey, email).Result()
	if err != nil {
		return false, fmt.Errorf("waitlist add: %w", err)
	}
	if added == 0 {
		return false, nil
	}

	key := fmt.Sprintf(recordKey, email)
	if err := l.client.HSet(ctx, key,
		"email", email,
		"joined_at", time.Now().UTC().Format(time.RFC3339),
	).Err(); err != nil {
		return true, fmt.Errorf("waitlist record: %w", err)
	}
	return true, nil
}

func (l *RedisList) Count(ctx context.Context) (int64, error) {
	n, err := l.client.SCard(ctx, setKey).Result()
	if err != nil {
		return 0, fmt.Errorf("waitlist count: %w", err)
	}
	return n, nil
}

func (l *RedisList) Emails(ctx context.Context) ([]string, error) {
	emails, err := l.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("waitlist emails: %w", err)
	}
	return emails, nil
}

func (l *RedisList) Close() error {
	return l.client.Close()
}

// StoreList is the SQL fallback used when no Redis URL is configured.
type StoreList struct {
	store *store.Store
}

func NewStore(st *store.Store) *StoreList {
	return &StoreList{store: st}
}

func (l *StoreList) Add(ctx context.Context, email string) (bool, error) {
	return l.store.AddWaitlistEmail(ctx, email)
}

func (l *StoreList) Count(ctx context.Context) (int64, error) {
	return l.store.CountWaitlistEmails(ctx)
}

func (l *StoreList) Emails(ctx context.Context) ([]string, error) {
	return l.store.ListWaitlistEmails(ctx)
}
