package cron

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
)

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// Lock is a best-effort distributed lock over Redis SETNX. The TTL bounds how
// long a crashed worker can hold a job hostage.
type Lock struct {
	store lockStore
	ttl   time.Duration
}

// NewLock builds the lock helper.
func NewLock(store lockStore, ttl time.Duration) (*Lock, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cron: lock store is required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Lock{store: store, ttl: ttl}, nil
}

// Acquire attempts to take the named lock. When acquired it returns a release
// func that only deletes the key if this holder still owns it.
func (l *Lock) Acquire(ctx context.Context, name string) (release func(), acquired bool, err error) {
	key := l.store.LockKey(name)
	holder := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, holder, l.ttl)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release = func() {
		current, err := l.store.Get(ctx, key)
		if err != nil || current != holder {
			return
		}
		_ = l.store.Del(ctx, key)
	}
	return release, true, nil
}
