// Package revocation keeps the set of signed-out token IDs until the tokens
// would have expired anyway.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Denylist records revoked token IDs.
type Denylist interface {
	// Revoke marks tokenID revoked until expiresAt.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	// IsRevoked reports whether tokenID was revoked and has not expired yet.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Memory is a process-wide Denylist. Expired entries are dropped by a
// background sweep started with Run.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemory creates an empty in-memory denylist.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" || !expiresAt.After(m.now()) {
		return nil
	}
	m.mu.Lock()
	m.entries[tokenID] = expiresAt
	m.mu.Unlock()
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[tokenID]
	return ok && exp.After(m.now()), nil
}

// Len returns the number of entries currently held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops expired entries.
func (m *Memory) Sweep() {
	now := m.now()
	m.mu.Lock()
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()
}

// Run sweeps every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
