package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/blob"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/crypto"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/logger"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/store"
)

// fatal prints the error and exits. Commands use it after setup has
// succeeded far enough that a plain message reads better than a usage dump.
func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// mustLoadConfig loads .env, the optional config file, and the NUBO_*
// environment, and validates field formats.
func mustLoadConfig() *config.Config {
	// A missing .env is fine; settings may come from the real environment.
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	return cfg
}

// mustLogger builds the process logger from the log settings.
func mustLogger(cfg *config.Config) *slog.Logger {
	return logger.New(logger.Settings{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// mustOpenStore connects to the database and applies the pool settings.
// SQLite URLs keep the pool the driver requires.
func mustOpenStore(cfg *config.Config) *store.SQLStore {
	if cfg.Database.URL == "" {
		fatal(fmt.Errorf("NUBO_DATABASE_URL is required"))
	}

	st, err := store.Open(cfg.Database.URL)
	if err != nil {
		fatal(err)
	}

	if store.DriverFor(cfg.Database.URL) == store.DriverPostgres {
		st.DB().SetMaxOpenConns(cfg.Database.MaxOpenConns)
		st.DB().SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	return st
}

// mustEncryptor builds the credential encryptor from the configured data
// key.
func mustEncryptor(cfg *config.Config) *crypto.Encryptor {
	if cfg.Security.DataKey == "" {
		fatal(fmt.Errorf("NUBO_SECURITY_DATA_KEY is required (generate one with: nubomaild data-key generate)"))
	}

	encryptor, err := crypto.NewEncryptor(cfg.Security.DataKey)
	if err != nil {
		fatal(fmt.Errorf("bad data key: %w", err))
	}
	return encryptor
}

// mustBlobStore builds the object storage client for message bodies.
func mustBlobStore(cfg *config.Config) *blob.S3Store {
	if cfg.Storage.Bucket == "" {
		fatal(fmt.Errorf("NUBO_STORAGE_BUCKET is required"))
	}

	blobs, err := blob.NewS3Store(blob.S3Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		ForcePathStyle:  cfg.Storage.ForcePathStyle,
	})
	if err != nil {
		fatal(fmt.Errorf("building storage client: %w", err))
	}
	return blobs
}
