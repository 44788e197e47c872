package tokenizer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/truthmemes/gatekeeper/core"
)

var testSecret = []byte("test-secret-key")

func newTestTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	tk, err := NewJWTTokenizer(testSecret, 24*time.Hour, 12*time.Hour)
	require.NoError(t, err)
	return tk.(*JWTTokenizer)
}

func TestNewJWTTokenizerRequiresSecret(t *testing.T) {
	_, err := NewJWTTokenizer(nil, time.Hour, time.Hour)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	tk := newTestTokenizer(t)

	token, err := tk.IdentityToToken(&core.Identity{
		Subject: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Role:    core.RoleUser,
	})
	require.NoError(t, err)

	identity, err := tk.TokenToIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", identity.Subject)
	assert.Equal(t, core.RoleUser, identity.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), identity.ExpiresAt, time.Minute)
}

func TestAdminTokenHasShorterLifetime(t *testing.T) {
	tk := newTestTokenizer(t)

	token, err := tk.IdentityToToken(&core.Identity{Subject: "root", Role: core.RoleAdmin})
	require.NoError(t, err)

	identity, err := tk.TokenToIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, identity.Role)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), identity.ExpiresAt, time.Minute)
}

func TestExpiredTokenRejected(t *testing.T) {
	tk, err := NewJWTTokenizer(testSecret, -time.Minute, -time.Minute)
	require.NoError(t, err)

	token, err := tk.IdentityToToken(&core.Identity{Subject: "0xabc", Role: core.RoleUser})
	require.NoError(t, err)

	_, err = tk.TokenToIdentity(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestForeignSecretRejected(t *testing.T) {
	other, err := NewJWTTokenizer([]byte("some-other-secret"), time.Hour, time.Hour)
	require.NoError(t, err)

	token, err := other.IdentityToToken(&core.Identity{Subject: "0xabc", Role: core.RoleUser})
	require.NoError(t, err)

	tk := newTestTokenizer(t)
	_, err = tk.TokenToIdentity(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestTokenWithoutRoleRejected(t *testing.T) {
	// Tokens minted elsewhere may be well signed but carry no role claim.
	claims := jwt.RegisteredClaims{
		Subject:   "0xabc",
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	tk := newTestTokenizer(t)

	_, err = tk.TokenToIdentity(token)
	assert.ErrorIs(t, err, core.ErrMissingRole)

	_, err = tk.DecodeIdentity(token)
	assert.ErrorIs(t, err, core.ErrMissingRole)
}

func TestDecodeIdentitySkipsSignatureCheck(t *testing.T) {
	tk := newTestTokenizer(t)

	token, err := tk.IdentityToToken(&core.Identity{Subject: "0xabc", Role: core.RoleAdmin})
	require.NoError(t, err)

	identity, err := tk.DecodeIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, identity.Role)

	_, err = tk.DecodeIdentity("not.a.jwt")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}
