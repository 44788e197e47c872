package store

import (
	"context"
	"sync"
	"time"

	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/ports"
)

// MemoryNonceStore is an in-memory implementation of the NonceStore
// interface, primarily intended for testing.
type MemoryNonceStore struct {
	nonces map[string]time.Time
	mu     sync.Mutex
}

// NewMemoryNonceStore creates a new in-memory nonce store.
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		nonces: make(map[string]time.Time),
	}
}

// Create persists a nonce under a uniqueness constraint. The single mutex
// makes the check-then-set atomic.
func (s *MemoryNonceStore) Create(ctx context.Context, value string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := s.nonces[value]; ok && time.Now().Before(deadline) {
		return core.ErrNonceExists
	}
	s.nonces[value] = expiresAt
	return nil
}

// Exists reports whether a nonce is live.
func (s *MemoryNonceStore) Exists(ctx context.Context, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.nonces[value]
	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		delete(s.nonces, value)
		return false, nil
	}
	return true, nil
}

// Delete consumes a nonce.
func (s *MemoryNonceStore) Delete(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nonces[value]; !ok {
		return core.ErrNonceNotFound
	}
	delete(s.nonces, value)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryNonceStore) Ping(ctx context.Context) error {
	return nil
}

// MemoryAdminStore is an in-memory implementation of the AdminStore
// interface for testing.
type MemoryAdminStore struct {
	byUsername map[string]*core.AdminCredential
	mu         sync.RWMutex
}

// NewMemoryAdminStore creates a new in-memory admin store.
func NewMemoryAdminStore() *MemoryAdminStore {
	return &MemoryAdminStore{
		byUsername: make(map[string]*core.AdminCredential),
	}
}

// Create persists a credential.
func (s *MemoryAdminStore) Create(ctx context.Context, cred *core.AdminCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[cred.Username]; ok {
		return core.ErrUsernameTaken
	}
	copied := *cred
	s.byUsername[cred.Username] = &copied
	return nil
}

// FindByUsername looks up a credential by username.
func (s *MemoryAdminStore) FindByUsername(ctx context.Context, username string) (*core.AdminCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.byUsername[username]
	if !ok {
		return nil, core.ErrAdminNotFound
	}
	copied := *cred
	return &copied, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryAdminStore) Ping(ctx context.Context) error {
	return nil
}

type window struct {
	start time.Time
	count int64
}

// MemoryRateCounter is an in-memory implementation of the RateCounter
// interface using fixed windows.
type MemoryRateCounter struct {
	windows map[string]*window
	mu      sync.Mutex
}

// NewMemoryRateCounter creates a new in-memory rate counter.
func NewMemoryRateCounter() ports.RateCounter {
	return &MemoryRateCounter{
		windows: make(map[string]*window),
	}
}

// Incr bumps the counter for key and returns the new count.
func (s *MemoryRateCounter) Incr(ctx context.Context, key string, windowSize time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= windowSize {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++
	return w.count, nil
}
