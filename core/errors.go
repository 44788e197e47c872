package core

import "errors"

var (
	// ErrMalformedMessage is returned when a challenge message cannot be parsed
	ErrMalformedMessage = errors.New("malformed challenge message")

	// ErrInvalidNonce is returned when a challenge references a nonce this
	// server never issued, or one that has already been consumed
	ErrInvalidNonce = errors.New("invalid nonce")

	// ErrInvalidChallenge is returned when a parseable challenge message
	// violates freshness policy: missing issuedAt or expirationTime, or a
	// TTL longer than the configured maximum
	ErrInvalidChallenge = errors.New("invalid challenge")

	// ErrNonceExists is returned by a store when a nonce value is already live
	ErrNonceExists = errors.New("nonce already exists")

	// ErrNonceNotFound is returned by a store when deleting an absent nonce
	ErrNonceNotFound = errors.New("nonce not found")

	// ErrExhaustedRetries is returned when nonce issuance fails repeatedly
	ErrExhaustedRetries = errors.New("exhausted nonce generation retries")

	// ErrInvalidSignature is returned when a signature does not recover to the
	// claimed address
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrChallengeExpired is returned when the current time falls outside the
	// challenge validity window
	ErrChallengeExpired = errors.New("challenge outside validity window")

	// ErrInvalidToken is returned when a bearer token is malformed or its
	// signature does not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when a bearer token has expired
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidRole is returned when a role claim does not decode
	ErrInvalidRole = errors.New("invalid role")

	// ErrMissingRole is returned when a token carries no role claim at all
	ErrMissingRole = errors.New("token does not include role")

	// ErrRoleMismatch is returned when a token's role is not in the set an
	// endpoint accepts
	ErrRoleMismatch = errors.New("role not permitted")

	// ErrAddressMismatch is returned when a token's address does not match the
	// address the client claims
	ErrAddressMismatch = errors.New("address mismatch")

	// ErrInvalidCredentials is the single undifferentiated failure for the
	// credential login path. Callers must not learn whether the username or
	// the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken is returned when registering a duplicate admin username
	ErrUsernameTaken = errors.New("username existed")

	// ErrAdminNotFound is returned by a store when no credential matches
	ErrAdminNotFound = errors.New("admin not found")

	// ErrRateLimited is returned when a throttling tier is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrStoreOperationFailed is returned when a store operation fails for
	// reasons other than a uniqueness conflict or a missing record
	ErrStoreOperationFailed = errors.New("store operation failed")
)
