package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/justestif/go-sleep-meditation/internal/audio"
	"github.com/justestif/go-sleep-meditation/internal/auth"
	"github.com/justestif/go-sleep-meditation/internal/config"
	"github.com/justestif/go-sleep-meditation/internal/db"
	"github.com/justestif/go-sleep-meditation/internal/gemini"
	"github.com/justestif/go-sleep-meditation/internal/logging"
	"github.com/justestif/go-sleep-meditation/internal/meditations"
	"github.com/justestif/go-sleep-meditation/internal/mood"
	"github.com/justestif/go-sleep-meditation/internal/script"
	"github.com/justestif/go-sleep-meditation/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		addr        string
		autoMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), addr, autoMigrate)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, addr string, autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
	}

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:    cfg.Gemini.APIKey,
		TextModel: cfg.Gemini.TextModel,
		TTSModel:  cfg.Gemini.TTSModel,
	})
	if err != nil {
		return err
	}

	store, audioDir, err := newAssetStore(ctx, cfg.Audio)
	if err != nil {
		return err
	}

	svc := meditations.New(
		meditations.NewPostgresStore(database),
		script.NewGenerator(client),
		audio.NewSynthesizer(client, store, logger),
		logger,
	)

	server := web.NewServer(web.ServerConfig{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
		AudioDir:       audioDir,
		Verifier:       newVerifier(cfg.Auth, logger),
		RecordLogin:    recordLogin(database, logger),
		Meditations:    svc,
		Moods:          mood.NewClassifier(client, logger),
		Quotes:         client,
		DB:             database,
		Logger:         logger,
	})

	return server.Run(ctx)
}

// newAssetStore returns the configured store and, for local storage, the
// directory to serve.
func newAssetStore(ctx context.Context, cfg config.AudioConfig) (audio.AssetStore, string, error) {
	if cfg.UseS3() {
		store, err := audio.NewS3Store(ctx, audio.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.PublicBaseURL,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}

	store, err := audio.NewLocalStore(cfg.Dir)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}

// newVerifier prefers Firebase when a project is configured.
func newVerifier(cfg config.AuthConfig, logger *slog.Logger) auth.Verifier {
	if cfg.FirebaseProjectID != "" {
		logger.Info("verifying Firebase ID tokens", "project", cfg.FirebaseProjectID)
		return auth.NewFirebaseVerifier(cfg.FirebaseProjectID, "", nil)
	}
	logger.Warn("verifying HS256 tokens with a shared secret; use only for development")
	return auth.NewHMACVerifier(cfg.HMACSecret)
}

// recordLogin upserts the caller. An email already linked to another account
// is logged and left off this user rather than failing the request.
func recordLogin(database *db.DB, logger *slog.Logger) auth.LoginRecorder {
	return func(ctx context.Context, id *auth.Identity) error {
		user := &db.User{ID: id.UID}
		if id.Email != "" {
			user.Email = &id.Email
		}
		if err := database.Users().Upsert(ctx, user); err != nil {
			return err
		}
		if id.Email != "" && (user.Email == nil || *user.Email != id.Email) {
			logger.WarnContext(ctx, "email belongs to another account; stored user without it", "uid", id.UID)
		}
		return nil
	}
}
