package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/walletledger/internal/application/ports"
)

// Compile-time check
var _ ports.DistributedLock = (*LocalLock)(nil)

type localEntry struct {
	token     string
	expiresAt time.Time
}

// LocalLock - блокировка в пределах процесса с той же семантикой TTL.
type LocalLock struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

// NewLocalLock создаёт пустую блокировку.
func NewLocalLock() *LocalLock {
	return &LocalLock{
		entries: make(map[string]localEntry),
		now:     time.Now,
	}
}

// TryLock берёт блокировку, если она свободна или истекла.
func (l *LocalLock) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, held := l.entries[key]; held && now.Before(entry.expiresAt) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.entries[key] = localEntry{token: token, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if entry, held := l.entries[key]; held && entry.token == token {
			delete(l.entries, key)
		}
		return nil
	}

	return release, true, nil
}
