// Package lock serialises onboarding imports, in-process or across
// instances through Redis.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLocked is returned when the key is already held.
var ErrLocked = errors.New("lock: already held")

// ReleaseFunc gives the lock back.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named, expiring locks without blocking.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// LocalLocker holds locks in memory for a single process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocalLocker builds an in-memory locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

// Acquire takes key until released or ttl passes.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, ErrLocked
	}
	until := now.Add(ttl)
	l.held[key] = until

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			if l.held[key].Equal(until) {
				delete(l.held, key)
			}
			l.mu.Unlock()
		})
		return nil
	}, nil
}
