package ports

import (
	"context"
	"time"

	"github.com/truthmemes/gatekeeper/core"
)

// NonceStore holds the set of live nonces. Create must be an atomic
// create-if-absent: two concurrent calls with the same value must never both
// succeed. The store, not the issuer, is the uniqueness authority.
type NonceStore interface {
	// Create persists a nonce with an expiry. Returns core.ErrNonceExists
	// when the value is already live.
	Create(ctx context.Context, value string, expiresAt time.Time) error

	// Exists reports whether a nonce is live (present and unexpired).
	Exists(ctx context.Context, value string) (bool, error)

	// Delete consumes a nonce. Returns core.ErrNonceNotFound when absent.
	Delete(ctx context.Context, value string) error

	// Ping checks connectivity for readiness probes.
	Ping(ctx context.Context) error
}

// AdminStore persists privileged account credentials.
type AdminStore interface {
	// Create persists a credential. Returns core.ErrUsernameTaken on a
	// duplicate username.
	Create(ctx context.Context, cred *core.AdminCredential) error

	// FindByUsername returns core.ErrAdminNotFound when no record matches.
	FindByUsername(ctx context.Context, username string) (*core.AdminCredential, error)

	// Ping checks connectivity for readiness probes.
	Ping(ctx context.Context) error
}

// RateCounter tracks request counts per throttling key. Incr must be atomic
// per key so concurrent bursts are never undercounted.
type RateCounter interface {
	// Incr bumps the counter for key and returns the new count. The counter
	// resets once window has elapsed since its first increment.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
