package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/ports"
)

const (
	Issuer   = "gatekeeper"
	Audience = "truthmemes"
)

// JWTTokenizer implements the Tokenizer interface with HS256 over a
// server-held secret. Admin tokens get a shorter lifetime than user tokens
// because a compromised admin credential has a larger blast radius.
type JWTTokenizer struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer. The secret must be non-empty;
// its absence is a configuration error callers treat as fatal at startup.
func NewJWTTokenizer(secret []byte, userTTL, adminTTL time.Duration) (ports.Tokenizer, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	return &JWTTokenizer{
		secret:   secret,
		userTTL:  userTTL,
		adminTTL: adminTTL,
	}, nil
}

func (j *JWTTokenizer) ttlFor(role core.Role) time.Duration {
	if role == core.RoleAdmin {
		return j.adminTTL
	}
	return j.userTTL
}

// IdentityToToken mints a signed access token for the identity.
func (j *JWTTokenizer) IdentityToToken(identity *core.Identity) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttlFor(identity.Role))),
		},
		Address: identity.Subject,
		Role:    identity.Role.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// TokenToIdentity verifies signature and expiry and returns the identity.
func (j *JWTTokenizer) TokenToIdentity(tokenStr string) (*core.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithAudience(Audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	return claimsToIdentity(claims)
}

// DecodeIdentity extracts claims without signature verification. Only safe
// after TokenToIdentity has already run on the same request.
func (j *JWTTokenizer) DecodeIdentity(tokenStr string) (*core.Identity, error) {
	claims := &IdentityClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}
	return claimsToIdentity(claims)
}

func claimsToIdentity(claims *IdentityClaims) (*core.Identity, error) {
	if claims.Role == "" {
		return nil, core.ErrMissingRole
	}

	role, err := core.ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	identity := &core.Identity{
		Subject: claims.Address,
		Role:    role,
	}
	if identity.Subject == "" {
		identity.Subject = claims.Subject
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
