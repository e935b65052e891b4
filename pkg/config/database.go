package config

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"github.com/anonto42/mockup-social/backend/pkg/firebase"
	"github.com/anonto42/mockup-social/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Collections that get backend indexes at startup.
var mongoCollections = []string{"users", "posts", "comments", "likes", "activities", "followers", "following"}

// InitStore opens the document store selected by cfg.Store.Driver. The
// Firebase app is only needed for the firestore driver and may be nil
// otherwise.
func InitStore(ctx context.Context, cfg *Config, app *firebase.App, log *logger.Logger) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		log.Warn("Using the in-memory document store; data is lost on exit")
		return docstore.NewMemoryStore(), nil
	case "firestore":
		if app == nil || app.Firestore == nil {
			return nil, fmt.Errorf("firestore driver needs an initialized firebase app")
		}
		log.Info("Using Firestore document store")
		return docstore.NewFirestoreStore(app.Firestore), nil
	case "mongo":
		return initMongo(ctx, &cfg.Mongo, log)
	case "postgres":
		return initPostgres(ctx, &cfg.Postgres, log)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// initMongo connects to MongoDB and prepares the lookup indexes
func initMongo(ctx context.Context, cfg *MongoConfig, log *logger.Logger) (docstore.Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo.uri is not set")
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	// Ping the primary to verify connection
	if err = client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	var opts []docstore.MongoOption
	if cfg.Transactions {
		opts = append(opts, docstore.WithTransactions())
	}
	store := docstore.NewMongoStore(client.Database(cfg.Database), opts...)
	if err := store.EnsureIndexes(connectCtx, mongoCollections...); err != nil {
		return nil, fmt.Errorf("failed to create MongoDB indexes: %w", err)
	}

	log.WithField("database", cfg.Database).Info("Successfully connected to MongoDB")
	return store, nil
}

// initPostgres opens the documents table through GORM
func initPostgres(ctx context.Context, cfg *PostgresConfig, log *logger.Logger) (docstore.Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is not set")
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := docstore.NewPostgresStore(db, cfg.PollInterval)
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}

	log.Info("Successfully connected to PostgreSQL")
	return store, nil
}
