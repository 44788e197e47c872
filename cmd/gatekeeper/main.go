package main

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/truthmemes/gatekeeper/adapters/events"
	"github.com/truthmemes/gatekeeper/adapters/store"
	"github.com/truthmemes/gatekeeper/adapters/tokenizer"
	"github.com/truthmemes/gatekeeper/config"
	"github.com/truthmemes/gatekeeper/internal/logging"
	"github.com/truthmemes/gatekeeper/service"
	"github.com/truthmemes/gatekeeper/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse redis url")
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create event publisher")
	}

	adminStore, err := store.NewSQLiteAdminStore(cfg.AdminDBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.AdminDBPath).Msg("failed to open admin store")
	}
	defer adminStore.Close()

	tk, err := tokenizer.NewJWTTokenizer([]byte(cfg.SecretKey), cfg.UserTokenTTL, cfg.AdminTokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create tokenizer")
	}

	nonceStore := store.NewRedisNonceStore(redisClient)
	rateCounter := store.NewRedisRateCounter(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(
		service.Config{
			Secret:        []byte(cfg.SecretKey),
			NonceTTL:      cfg.NonceTTL,
			MessageMaxTTL: cfg.MessageMaxTTL,
			SIWEDomain:    cfg.SIWEDomain,
			SIWEURI:       cfg.SIWEURI,
			SIWEStatement: cfg.SIWEStatement,
			SIWEChainID:   cfg.SIWEChainID,
		},
		nonceStore, adminStore, tk, eventPub, logger,
	)

	router := http.SetupRouter(cfg, authService, tk, rateCounter, nonceStore, adminStore, logger)

	logger.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Environment).
		Dur("nonce_ttl", cfg.NonceTTL).
		Msg("gatekeeper listening")

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
