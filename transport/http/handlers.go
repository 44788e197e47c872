package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/ports"
	"github.com/truthmemes/gatekeeper/service"
)

// AuthHandlers exposes the wallet and admin authentication endpoints.
type AuthHandlers struct {
	auth *service.AuthService
	log  zerolog.Logger
}

func NewAuthHandlers(auth *service.AuthService, log zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{auth: auth, log: log}
}

// Nonce issues a fresh single-use nonce for a sign-in challenge.
func (h *AuthHandlers) Nonce(c *gin.Context) {
	nonce, err := h.auth.IssueNonce(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("nonce issuance failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot generate nonce"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":          nonce.Value,
		"issuedAt":       nonce.IssuedAt.Format(time.RFC3339),
		"expirationTime": nonce.ExpiresAt.Format(time.RFC3339),
	})
}

type verifySiweRequest struct {
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// VerifySiwe checks a signed challenge message and exchanges it for a
// bearer token.
func (h *AuthHandlers) VerifySiwe(c *gin.Context) {
	var req verifySiweRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message and signature are required"})
		return
	}

	token, err := h.auth.VerifySiwe(c.Request.Context(), req.Message, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMalformedMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed challenge message"})
		case errors.Is(err, core.ErrInvalidNonce), errors.Is(err, core.ErrInvalidChallenge):
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid challenge, request a new nonce and sign in again"})
		case errors.Is(err, core.ErrInvalidSignature), errors.Is(err, core.ErrChallengeExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		default:
			h.log.Error().Err(err).Msg("challenge verification failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

type verifyJWTRequest struct {
	Address string `json:"address" binding:"required"`
}

// VerifyJWT confirms that the bearer token belongs to the claimed address.
// The token itself was already validated by the route guards.
func (h *AuthHandlers) VerifyJWT(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req verifyJWTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	if !strings.EqualFold(identity.Subject, req.Address) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "address mismatch"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// VerifyAdmin confirms admin access. All the work happens in the route
// guards; reaching the handler means the token carries the admin role.
func (h *AuthHandlers) VerifyAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignIn authenticates an admin by username and password.
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.auth.SignInWithCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Msg("admin sign-in failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// HealthHandlers reports process liveness and backend readiness.
type HealthHandlers struct {
	nonces ports.NonceStore
	admins ports.AdminStore
}

func NewHealthHandlers(nonces ports.NonceStore, admins ports.AdminStore) *HealthHandlers {
	return &HealthHandlers{nonces: nonces, admins: admins}
}

func (h *HealthHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandlers) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.nonces.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "nonce store unavailable"})
		return
	}
	if err := h.admins.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "admin store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DevHandlers hosts development helpers. The router only mounts them
// outside production.
type DevHandlers struct {
	auth *service.AuthService
	log  zerolog.Logger
}

func NewDevHandlers(auth *service.AuthService, log zerolog.Logger) *DevHandlers {
	return &DevHandlers{auth: auth, log: log}
}

type siweMessageRequest struct {
	Address string `json:"address" binding:"required"`
	Nonce   string `json:"nonce" binding:"required"`
}

// SiweMessage renders the challenge message a wallet would be asked to
// sign, so clients can be exercised without a browser wallet.
func (h *DevHandlers) SiweMessage(c *gin.Context) {
	var req siweMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address and nonce are required"})
		return
	}

	if !common.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ethereum address"})
		return
	}

	message := h.auth.BuildChallengeMessage(common.HexToAddress(req.Address), req.Nonce)
	c.JSON(http.StatusOK, gin.H{"message": message})
}

type adminSignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminSignup registers an admin account for local testing.
func (h *DevHandlers) AdminSignup(c *gin.Context) {
	var req adminSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	if err := h.auth.RegisterAdmin(c.Request.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, core.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already exists"})
			return
		}
		h.log.Error().Err(err).Msg("admin signup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// RateLimitTest is a throttled no-op used to probe the limiter.
func (h *DevHandlers) RateLimitTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, World"})
}
