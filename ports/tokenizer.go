package ports

import "github.com/truthmemes/gatekeeper/core"

// Tokenizer converts between identities and bearer tokens.
type Tokenizer interface {
	// IdentityToToken mints a signed access token for the identity.
	IdentityToToken(identity *core.Identity) (string, error)

	// TokenToIdentity verifies signature and expiry and returns the identity.
	TokenToIdentity(token string) (*core.Identity, error)

	// DecodeIdentity extracts claims without re-verifying the signature.
	// Only safe after TokenToIdentity has already run on the same request.
	DecodeIdentity(token string) (*core.Identity, error)
}
