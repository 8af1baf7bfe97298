package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"notebookService/internal/assets"
	"notebookService/internal/auth"
	"notebookService/internal/cache"
	"notebookService/internal/config"
	"notebookService/internal/db"
	grpcserver "notebookService/internal/grpc"
	"notebookService/internal/httpapi"
	"notebookService/internal/logging"
	"notebookService/internal/service"
	"notebookService/repository"
)

func main() {
	dev := flag.Bool("dev", false, "use development defaults (fallback JWT secret)")
	flag.Parse()

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env")
	}

	// Load configuration
	load := config.Load
	if *dev {
		load = config.LoadWithDefaults
	}
	cfg, err := load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	logger.Info().Stringer("config", cfg).Msg("configuration loaded")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn().Err(err).Msg("close db")
		}
	}()

	c, err := openCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("close cache")
		}
	}()

	store, err := assets.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	svc := service.New(service.Deps{
		Users:    repository.NewUserRepository(d),
		Notes:    repository.NewNoteRepository(d),
		Sections: repository.NewSectionRepository(d),
		Pages:    repository.NewPageRepository(d),
		Cache:    c,
		Assets:   store,
		Issuer:   auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger,
	})

	// Start gRPC
	shutdownGRPC, err := grpcserver.StartGRPC(cfg.GRPC.Address, verifier, svc, logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httpapi.NewRouter(svc, verifier, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Address).Msg("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case serveErr = <-httpErr:
		logger.Error().Err(serveErr).Msg("http server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if err := shutdownGRPC(ctx); err != nil {
		logger.Warn().Err(err).Msg("grpc shutdown")
	}
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

func openCache(cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend == config.CacheBadger {
		b, err := cache.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
