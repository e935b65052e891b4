package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/middleware"
	"github.com/anonto42/mockup-social/backend/internal/router"
	"github.com/anonto42/mockup-social/backend/internal/search"
	"github.com/anonto42/mockup-social/backend/internal/validators"
	"github.com/anonto42/mockup-social/backend/pkg/cache"
	"github.com/anonto42/mockup-social/backend/pkg/config"
	"github.com/anonto42/mockup-social/backend/pkg/firebase"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting mockup-social API server...")

	ctx := context.Background()

	// Firebase is needed for the Firestore backend and for ID-token verification
	var firebaseApp *firebase.App
	if cfg.Store.Driver == "firestore" || cfg.Firebase.VerifyTokens {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.Firebase.CredentialsPath, cfg.Firebase.ProjectID)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Firebase")
		}
		defer firebaseApp.Close()
	}

	store, err := config.InitStore(ctx, cfg, firebaseApp, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize document store")
	}
	defer store.Close()

	searchOpts := search.Options{
		CandidateLimit: cfg.Search.CandidateLimit,
		DefaultLimit:   cfg.Search.DefaultLimit,
	}
	if cfg.Redis.Enabled() {
		redisClient := cache.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		searchOpts.Cache = search.NewRedisResultCache(redisClient, cfg.Search.CacheTTL, logger)
		logger.WithField("addr", cfg.Redis.Addr()).Info("Search result cache enabled")
	}

	var verifier middleware.TokenVerifier
	if cfg.Firebase.VerifyTokens {
		verifier = firebaseApp.AuthClient
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, logger)
	router.SetupRoutes(e, router.Deps{
		Store:    store,
		Logger:   logger,
		Verifier: verifier,
		Search:   searchOpts,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server exited")
}
