package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack-server/src/api"
	"fintrack-server/src/auth"
	"fintrack-server/src/backend"
	"fintrack-server/src/cache"
	"fintrack-server/src/config"
	"fintrack-server/src/events"
	"fintrack-server/src/logger"
	"fintrack-server/src/models"
	"fintrack-server/src/store"
)

const devJWTSecret = "development-only-secret"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Error("invalid configuration", logger.FieldError, err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
	logger.SetDefault(log)
	models.Location = cfg.Location

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", logger.FieldError, err)
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	backendStore, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return err
	}

	qc, err := cache.New(cache.Config{MaxItems: cfg.CacheMaxItems, TTL: cfg.CacheTTL})
	if err != nil {
		backendStore.Close()
		return err
	}
	defer qc.Close()

	broker := events.NewBroker()
	st := store.NewCached(backendStore, qc, broker)
	defer st.Close()

	if cfg.AMQPURL != "" {
		bridge, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, broker, log)
		if err != nil {
			return err
		}
		defer bridge.Close()
		eventsLog := log.WithComponent(logger.ComponentEvents)
		broker.SetForwarder(bridge, func(err error) {
			eventsLog.Warn("failed to forward change event", logger.FieldError, err)
		})
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				eventsLog.Error("change event consumer stopped", logger.FieldError, err)
			}
		}()
		log.Info("change fan-out enabled", "exchange", cfg.AMQPExchange)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	tokens, err := auth.NewTokens(secret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	defer tokens.Close()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Options{
			Store:          st,
			Tokens:         tokens,
			Logger:         log,
			AllowedOrigins: cfg.AllowedOrigins,
			ReadOnly:       cfg.ReadOnly,
			Now:            func() time.Time { return time.Now().In(cfg.Location) },
		}),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server running", "port", cfg.Port, logger.FieldBackend, cfg.DataBackend, "read_only", cfg.ReadOnly)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received", logger.FieldOperation, logger.OpShutdown)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
