package core

import (
	"fmt"
	"time"
)

// Role is the permission class carried inside an access token.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

// String returns the wire encoding of the role. Role values only become
// strings at the token-serialization boundary.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole decodes a role claim back into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidRole, s)
	}
}

// Nonce is a single-use random token proving freshness of a signed challenge.
// The store owns the live set; this value is only the issuance receipt.
type Nonce struct {
	Value     string    // Random value, at least 8 characters
	IssuedAt  time.Time // When the nonce was issued
	ExpiresAt time.Time // When the nonce expires if never consumed
}

// Identity is the authenticated principal extracted from a bearer token.
type Identity struct {
	Subject   string    // Wallet address, or username for credential logins
	Role      Role      // Permission class
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // When the token expires
}

// AdminCredential is a persisted username/password record for privileged
// accounts. PasswordHash is an HMAC-SHA256 of the plaintext password keyed
// with the server secret; the plaintext is never stored.
type AdminCredential struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
