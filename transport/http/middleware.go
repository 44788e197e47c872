package http

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/truthmemes/gatekeeper/config"
	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/ports"
)

const identityKey = "identity"

func extractBearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// identityFromContext returns the identity stashed by AuthRequired.
func identityFromContext(c *gin.Context) (*core.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*core.Identity)
	return identity, ok
}

// RequestLogger logs every request with timing and a request id.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}

// AuthRequired validates the bearer token's signature and expiry and stashes
// the identity for downstream handlers. It does not inspect the role.
func AuthRequired(tokenizer ports.Tokenizer, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractBearerToken(c)
		if !ok {
			log.Info().Str("path", c.Request.URL.Path).Msg("missing or malformed authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		identity, err := tokenizer.TokenToIdentity(token)
		if err != nil {
			log.Info().Err(err).Str("path", c.Request.URL.Path).Msg("access token rejected")
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRoles grants access when the token's role is in the accepted set.
// An empty set means no restriction. Claims are decoded without re-verifying
// the signature because AuthRequired already ran; a token without a role
// claim is a hard reject.
func RequireRoles(tokenizer ports.Tokenizer, log zerolog.Logger, roles ...core.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(roles) == 0 {
			c.Next()
			return
		}

		token, ok := extractBearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		identity, err := tokenizer.DecodeIdentity(token)
		if err != nil {
			log.Info().Err(err).Str("path", c.Request.URL.Path).Msg("role check failed to decode token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if !slices.Contains(roles, identity.Role) {
			log.Info().
				Stringer("role", identity.Role).
				Str("path", c.Request.URL.Path).
				Msg("role mismatch")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "insufficient role"})
			return
		}

		c.Next()
	}
}

// RateLimit applies fixed-window throttling tiers. The tracking key prefers
// the authenticated address; requests without a usable token are bucketed by
// network address. Admin tokens are exempt. Counter failures let the request
// through rather than taking the endpoint down with the counter backend.
func RateLimit(counter ports.RateCounter, tokenizer ports.Tokenizer, log zerolog.Logger, tiers ...config.RateTier) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, exempt := trackerKey(c, tokenizer)
		if exempt {
			c.Next()
			return
		}

		for _, tier := range tiers {
			count, err := counter.Incr(c.Request.Context(), tier.Name+":"+key, tier.Window)
			if err != nil {
				log.Warn().Err(err).Str("tier", tier.Name).Msg("rate counter failed")
				continue
			}
			if count > tier.Limit {
				log.Info().
					Str("tier", tier.Name).
					Str("tracker", key).
					Int64("count", count).
					Msg("rate limit exceeded")
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
				return
			}
		}

		c.Next()
	}
}

// trackerKey derives the throttling identity for a request. The second
// return value reports admin exemption.
func trackerKey(c *gin.Context, tokenizer ports.Tokenizer) (string, bool) {
	token, ok := extractBearerToken(c)
	if !ok {
		return clientAddress(c), false
	}

	identity, err := tokenizer.DecodeIdentity(token)
	if err != nil || identity.Subject == "" {
		return clientAddress(c), false
	}

	if identity.Role == core.RoleAdmin {
		return "", true
	}

	return identity.Subject, false
}

// clientAddress picks the first entry of a forwarded-address chain, falling
// back to the direct peer address.
func clientAddress(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return c.ClientIP()
}
