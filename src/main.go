package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-tracker-server/src/api"
	"expense-tracker-server/src/config"
	"expense-tracker-server/src/db"
	"expense-tracker-server/src/db/backend"
	"expense-tracker-server/src/logger"
	"expense-tracker-server/src/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the record store
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := backend.Open(connectCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.DataBackend).Msg("DB connection failed")
	}

	cache, err := db.NewListCache(cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction cache")
	}
	defer cache.Close()

	// Periodic full cache flush
	c := cron.New()
	if _, err := c.AddFunc(cfg.CacheFlushSchedule, cache.ClearAll); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.CacheFlushSchedule).Msg("Failed to add cache flush job")
	}
	c.Start()

	transactions := service.NewTransactionService(db.NewCachedTransactionStore(store.Transactions, cache))

	router := api.NewRouter(api.Deps{
		Transactions:   transactions,
		Users:          store.Users,
		Cache:          cache,
		JWTSecret:      []byte(cfg.JWTSecret),
		TokenTTL:       cfg.TokenTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		DemoMode:       cfg.DemoMode,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.DataBackend).Msg("API server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		<-c.Stop().Done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return store.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}
