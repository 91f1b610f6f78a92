package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pix-gateway/config"
	httpHandler "pix-gateway/internal/adapter/http/handler"
	"pix-gateway/internal/adapter/http/middleware"
	"pix-gateway/internal/adapter/provider"
	redisStorage "pix-gateway/internal/adapter/storage/redis"
	"pix-gateway/internal/core/ports"
	"pix-gateway/internal/service"
	"pix-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Gateway PIX")

	store, err := openStorage(ctx, cfg, logger.Component(log, "storage"))
	if err != nil {
		return err
	}
	defer store.close()

	var checkers []ports.HealthChecker
	if store.health != nil {
		checkers = append(checkers, store.health)
	}

	var limiter middleware.Limiter
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
		if cfg.RateLimit.Enabled {
			limiter = redisStorage.NewRateLimitStore(rdb)
		}
	} else if cfg.RateLimit.Enabled {
		log.Warn().Msg("rate limiting needs redis; running without it")
	}

	hasher, err := service.NewBlake2bSecretHasher(cfg.Security.SecretPepper)
	if err != nil {
		return err
	}

	providerClient := provider.NewClient(cfg.Provider, cfg.Public.CallbackURL(), logger.Component(log, "provider"))
	svcLog := logger.Component(log, "service")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		CredentialSvc:  service.NewCredentialService(store.credentials, hasher, svcLog),
		ChargeSvc:      service.NewChargeService(store.transactions, providerClient, svcLog),
		CallbackSvc:    service.NewCallbackService(store.transactions, svcLog),
		RateLimitStore: limiter,
		ChargeLimit:    middleware.RateLimitRule{Limit: cfg.RateLimit.ChargeLimit, Window: cfg.RateLimit.ChargeWindow},
		KeyIssueLimit:  middleware.RateLimitRule{Limit: cfg.RateLimit.KeyIssueLimit, Window: cfg.RateLimit.KeyIssueWindow},
		HealthCheckers: checkers,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         logger.Component(log, "http"),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("callback_url", cfg.Public.CallbackURL()).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
	return nil
}
