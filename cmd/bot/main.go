// Command bot runs the Doloni Documenti support bot: a Telegram webhook
// server that routes client requests to operators, tracks tickets in SQLite,
// and exposes health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/config"
	httpapi "github.com/doloni/support-bot/internal/http"
	"github.com/doloni/support-bot/internal/observability"
	"github.com/doloni/support-bot/internal/repo"
	"github.com/doloni/support-bot/internal/sysutil"
	"github.com/doloni/support-bot/internal/telegram"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is a development convenience; real environments set variables
	// directly and the file is absent.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	log.Info().Str("version", appVersion).Msg("starting support bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	tg := telegram.NewClient(cfg.BotToken, cfg.TelegramAPIBase, cfg.SendTimeout,
		log.With().Str("component", "telegram").Logger())

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, tg, cfg)

	// Register the webhook when a public URL is configured; otherwise the
	// operator manages it out of band.
	if url := cfg.WebhookURL(); url != "" {
		if err := tg.SetWebhook(ctx, url, cfg.WebhookSecret); err != nil {
			log.Fatal().Err(err).Str("url", url).Msg("webhook registration failed")
		}
		log.Info().Str("url", url).Msg("webhook registered")
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tg.DeleteWebhook(dctx); err != nil {
				log.Warn().Err(err).Msg("webhook removal failed")
			}
		}()
	}

	// Periodically drop old processed-update rows so the dedup table does not
	// grow without bound.
	go pruneLoop(ctx, db, cfg.UpdateDedupTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("stopped")
}

// pruneLoop removes processed-update records older than ttl once per hour
// until ctx is canceled.
func pruneLoop(ctx context.Context, db *gorm.DB, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PruneProcessedUpdates(ctx, db, ttl)
			if err != nil {
				log.Warn().Err(err).Msg("update prune failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("pruned processed updates")
			}
		}
	}
}
