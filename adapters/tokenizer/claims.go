package tokenizer

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims combines standard claims with the address and role the
// guards act on.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
	Role    string `json:"role"`
}
