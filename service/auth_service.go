// Package service implements the credential-verification engine: nonce
// issuance with bounded retry, challenge validation, signature verification
// orchestration and the admin credential login path.
package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/internal/eth"
	"github.com/truthmemes/gatekeeper/ports"
)

const (
	// DefaultNonceTTL bounds how long an unconsumed nonce stays live.
	DefaultNonceTTL = 24 * time.Hour

	// DefaultMessageMaxTTL bounds expirationTime - issuedAt on incoming
	// challenge messages.
	DefaultMessageMaxTTL = 24 * time.Hour

	// nonceRetries is the attempt budget for nonce generation. Collisions
	// and transient store failures are absorbed here; only exhaustion
	// surfaces to the caller.
	nonceRetries = 3

	nonceLength  = 17
	nonceCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Config carries the immutable policy knobs the service is built with.
type Config struct {
	Secret        []byte        // Server secret for password hashing
	NonceTTL      time.Duration // Lifetime of an issued nonce
	MessageMaxTTL time.Duration // Maximum accepted challenge TTL

	// Challenge message template, used by the development helper endpoint.
	SIWEDomain    string
	SIWEURI       string
	SIWEStatement string
	SIWEChainID   int
}

// AuthService handles authentication business logic.
type AuthService struct {
	nonces    ports.NonceStore
	admins    ports.AdminStore
	tokenizer ports.Tokenizer
	events    ports.EventPublisher

	cfg Config
	log zerolog.Logger
}

// NewAuthService creates a new authentication service. Zero-valued TTLs in
// cfg fall back to the defaults.
func NewAuthService(
	cfg Config,
	nonces ports.NonceStore,
	admins ports.AdminStore,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	log zerolog.Logger,
) *AuthService {
	if cfg.NonceTTL == 0 {
		cfg.NonceTTL = DefaultNonceTTL
	}
	if cfg.MessageMaxTTL == 0 {
		cfg.MessageMaxTTL = DefaultMessageMaxTTL
	}
	if cfg.SIWEDomain == "" {
		cfg.SIWEDomain = "localhost"
	}
	if cfg.SIWEURI == "" {
		cfg.SIWEURI = "http://localhost/auth"
	}
	if cfg.SIWEStatement == "" {
		cfg.SIWEStatement = "Welcome to TruthMemes"
	}
	if cfg.SIWEChainID == 0 {
		cfg.SIWEChainID = 1
	}
	return &AuthService{
		nonces:    nonces,
		admins:    admins,
		tokenizer: tokenizer,
		events:    events,
		cfg:       cfg,
		log:       log.With().Str("component", "auth_service").Logger(),
	}
}

// IssueNonce generates a unique nonce and persists it with an expiry.
// Generation failures and store collisions each burn one attempt; the store's
// atomic create-if-absent is the sole uniqueness authority, so a failed
// attempt leaves no partial state behind.
func (s *AuthService) IssueNonce(ctx context.Context) (*core.Nonce, error) {
	for attempt := 1; attempt <= nonceRetries; attempt++ {
		value, err := generateNonce()
		if err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("nonce generation failed")
			continue
		}

		now := time.Now()
		nonce := &core.Nonce{
			Value:     value,
			IssuedAt:  now,
			ExpiresAt: now.Add(s.cfg.NonceTTL),
		}

		if err := s.nonces.Create(ctx, nonce.Value, nonce.ExpiresAt); err != nil {
			if errors.Is(err, core.ErrNonceExists) {
				s.log.Debug().Int("attempt", attempt).Msg("nonce collision, retrying")
			} else {
				s.log.Warn().Err(err).Int("attempt", attempt).Msg("nonce store write failed")
			}
			continue
		}

		return nonce, nil
	}

	s.log.Error().Int("attempts", nonceRetries).Msg("cannot issue nonce")
	return nil, core.ErrExhaustedRetries
}

// ValidateChallenge runs the cheap, non-cryptographic checks on a parsed
// challenge message, in order, short-circuiting on the first failure. A stale
// or foreign nonce must never reach signature verification.
func (s *AuthService) ValidateChallenge(ctx context.Context, msg *eth.Message) error {
	issued, err := s.nonces.Exists(ctx, msg.Nonce)
	if err != nil {
		return fmt.Errorf("nonce lookup failed: %w", err)
	}
	if !issued {
		return fmt.Errorf("%w: nonce was not issued by this server", core.ErrInvalidNonce)
	}

	if msg.IssuedAt == nil {
		return fmt.Errorf("%w: missing issuedAt", core.ErrInvalidChallenge)
	}

	if msg.ExpirationTime == nil {
		return fmt.Errorf("%w: missing expirationTime", core.ErrInvalidChallenge)
	}

	if ttl := msg.ExpirationTime.Sub(*msg.IssuedAt); ttl > s.cfg.MessageMaxTTL {
		return fmt.Errorf("%w: ttl %s exceeds maximum %s", core.ErrInvalidChallenge, ttl, s.cfg.MessageMaxTTL)
	}

	return nil
}

// VerifySiwe validates a signed challenge end to end and returns an access
// token with role user. The nonce is consumed only on the success path; a
// failed delete is tolerated since the nonce expires naturally and cannot be
// replayed with a different valid signature.
func (s *AuthService) VerifySiwe(ctx context.Context, rawMessage, signature string) (string, error) {
	msg, err := eth.ParseMessage(rawMessage)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrMalformedMessage, err)
	}

	if err := s.ValidateChallenge(ctx, msg); err != nil {
		s.log.Info().Err(err).Str("address", msg.Address.Hex()).Msg("challenge validation rejected")
		return "", err
	}

	if err := msg.ValidAt(time.Now()); err != nil {
		s.log.Info().Err(err).Str("address", msg.Address.Hex()).Msg("challenge outside validity window")
		return "", fmt.Errorf("%w: %v", core.ErrChallengeExpired, err)
	}

	if err := msg.VerifySignature(signature); err != nil {
		s.log.Info().Err(err).Str("address", msg.Address.Hex()).Msg("signature verification failed")
		return "", fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}

	if err := s.nonces.Delete(ctx, msg.Nonce); err != nil {
		s.log.Warn().Err(err).Msg("failed to consume nonce")
	}

	identity := &core.Identity{
		Subject: msg.Address.Hex(),
		Role:    core.RoleUser,
	}

	token, err := s.tokenizer.IdentityToToken(identity)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.publishLogin(ctx, identity)

	return token, nil
}

// SignInWithCredentials verifies an admin username/password pair and issues
// an admin-role token. A missing record and a hash mismatch are
// indistinguishable to the caller.
func (s *AuthService) SignInWithCredentials(ctx context.Context, username, password string) (string, error) {
	cred, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrAdminNotFound) {
			s.log.Info().Str("username", username).Msg("sign-in attempt for unknown admin")
			return "", core.ErrInvalidCredentials
		}
		return "", fmt.Errorf("credential lookup failed: %w", err)
	}

	computed := s.hashPassword(password)
	if !hmac.Equal([]byte(computed), []byte(cred.PasswordHash)) {
		s.log.Info().Str("username", username).Msg("sign-in attempt with wrong password")
		return "", core.ErrInvalidCredentials
	}

	identity := &core.Identity{
		Subject: cred.Username,
		Role:    core.RoleAdmin,
	}

	token, err := s.tokenizer.IdentityToToken(identity)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.publishLogin(ctx, identity)

	return token, nil
}

// RegisterAdmin stores a new admin credential with an HMAC password hash.
func (s *AuthService) RegisterAdmin(ctx context.Context, username, password string) error {
	cred := &core.AdminCredential{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: s.hashPassword(password),
		CreatedAt:    time.Now(),
	}

	if err := s.admins.Create(ctx, cred); err != nil {
		return err
	}

	s.log.Info().Str("username", username).Msg("admin credential registered")
	return nil
}

// BuildChallengeMessage renders a signable challenge for the given address
// and nonce using the configured message template.
func (s *AuthService) BuildChallengeMessage(address common.Address, nonce string) string {
	now := time.Now()
	expires := now.Add(s.cfg.NonceTTL)

	msg := &eth.Message{
		Domain:         s.cfg.SIWEDomain,
		Address:        address,
		Statement:      s.cfg.SIWEStatement,
		URI:            s.cfg.SIWEURI,
		Version:        "1",
		ChainID:        s.cfg.SIWEChainID,
		Nonce:          nonce,
		IssuedAt:       &now,
		ExpirationTime: &expires,
	}

	return msg.Text()
}

func (s *AuthService) hashPassword(password string) string {
	mac := hmac.New(sha256.New, s.cfg.Secret)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// publishLogin best-effort notifies other services; the token is already
// issued, so a publish failure must not fail the sign-in.
func (s *AuthService) publishLogin(ctx context.Context, identity *core.Identity) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLogin(ctx, identity.Subject, identity.Role); err != nil {
		s.log.Warn().Err(err).Str("subject", identity.Subject).Msg("failed to publish login event")
	}
}

func generateNonce() (string, error) {
	buf := make([]byte, nonceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = nonceCharset[int(b)%len(nonceCharset)]
	}
	return string(buf), nil
}
