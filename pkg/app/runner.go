// Package app bootstraps the relay: configuration, logging, storage, the
// Discord session and the HTTP server, with a blocking run loop that shuts
// down cleanly on SIGINT/SIGTERM.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/hookcast/internal/server"
	"github.com/small-frappuccino/hookcast/pkg/config"
	"github.com/small-frappuccino/hookcast/pkg/logging"
	"github.com/small-frappuccino/hookcast/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// Run bootstraps the relay and blocks until shutdown. envFile names an
// optional .env fallback file; variables already present in the environment
// always win over it.
func Run(envFile string) error {
	started := time.Now()

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Logger first so subsequent steps can log meaningfully.
	if cfg.LogDir != "" {
		if err := logging.SetupFileLogger(cfg.LogDir); err != nil {
			return fmt.Errorf("configure logger: %w", err)
		}
	} else if err := logging.SetupLogger(); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer logging.CloseGlobalLogger()

	logging.Infof("Starting hookcast relay on %s", cfg.ListenAddr)

	opts := []server.Option{
		server.WithRetryAfterFallback(cfg.RetryAfterFallback),
	}

	// Webhook-scoped operations are unauthenticated, so the session exists
	// even without a bot token. The token only unlocks channel reads.
	token := ""
	if cfg.BotToken != "" {
		token = "Bot " + cfg.BotToken
		logging.Info("Bot token configured, message prefill enabled (value redacted)")
	} else {
		logging.Info("No bot token configured, message prefill serves sample data")
	}
	session, err := discordgo.New(token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	opts = append(opts, server.WithSession(session))

	if cfg.HistoryDBPath != "" {
		store := storage.NewStore(cfg.HistoryDBPath)
		if err := store.Init(); err != nil {
			return fmt.Errorf("initialize history store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.ErrorWithErr("close history store", err)
			}
		}()
		logging.WithField("path", cfg.HistoryDBPath).Info("Delivery history enabled")
		opts = append(opts, server.WithHistory(store))
	} else {
		logging.Info("Delivery history disabled")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(opts...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		logging.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logging.WithField("uptime", time.Since(started).Round(time.Second).String()).Info("Stopped")
	return nil
}
