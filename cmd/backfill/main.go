// Command backfill rewrites the search fields of every user whose stored
// fields are missing or stale.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/router"
	"github.com/anonto42/mockup-social/backend/internal/search"
	"github.com/anonto42/mockup-social/backend/pkg/config"
	"github.com/anonto42/mockup-social/backend/pkg/firebase"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logger.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var firebaseApp *firebase.App
	if cfg.Store.Driver == "firestore" {
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

	svc := router.NewServices(store, logger, search.Options{})

	start := time.Now()
	updated, err := svc.Users.BackfillSearchFields(ctx)
	if err != nil {
		logger.WithError(err).WithField("updated", updated).Fatal("Backfill stopped")
	}
	logger.WithFields(logrus.Fields{
		"updated":  updated,
		"duration": time.Since(start).String(),
	}).Info("Backfill finished")
}
