package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/truthmemes/gatekeeper/config"
	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/ports"
	"github.com/truthmemes/gatekeeper/service"
)

// SetupRouter wires the HTTP surface: the throttled /auth group, health
// probes, and (outside production) the development helpers.
func SetupRouter(
	cfg config.Config,
	authService *service.AuthService,
	tokenizer ports.Tokenizer,
	counter ports.RateCounter,
	nonces ports.NonceStore,
	admins ports.AdminStore,
	log zerolog.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	handlers := NewAuthHandlers(authService, log)
	health := NewHealthHandlers(nonces, admins)
	throttle := RateLimit(counter, tokenizer, log, cfg.ShortTier, cfg.LongTier)

	router.GET("/live", health.Live)
	router.GET("/ready", health.Ready)

	auth := router.Group("/auth", throttle)
	{
		auth.POST("/nonce", handlers.Nonce)
		auth.POST("/verify/siwe", handlers.VerifySiwe)
		auth.POST("/verify/jwt", AuthRequired(tokenizer, log), RequireRoles(tokenizer, log, core.RoleUser), handlers.VerifyJWT)
		auth.POST("/verify/admin", AuthRequired(tokenizer, log), RequireRoles(tokenizer, log, core.RoleAdmin), handlers.VerifyAdmin)
		auth.POST("/signin", handlers.SignIn)
	}

	if !cfg.IsProduction() {
		dev := NewDevHandlers(authService, log)
		devGroup := router.Group("/dev")
		{
			devGroup.POST("/siwe/message", dev.SiweMessage)
			devGroup.POST("/admin/signup", dev.AdminSignup)
			devGroup.GET("/rate-limit-test", throttle, dev.RateLimitTest)
		}
	}

	return router
}
