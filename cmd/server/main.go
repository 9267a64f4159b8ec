package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zaqqye/tg_contact_form/internal/app"
	"github.com/zaqqye/tg_contact_form/internal/config"
	"github.com/zaqqye/tg_contact_form/internal/logger"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred flushes always happen.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewStructured(cfg.LogLevel, cfg.LogFormat)
	defer log.Zap().Sync()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
			Release:     cfg.Version,
		}); err != nil {
			log.WithError(err).Error("sentry init failed", nil)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		sentry.CaptureException(err)
		log.WithError(err).Error("startup failed", nil)
		return err
	}
	defer a.Close()

	go a.Hub.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", map[string]interface{}{"addr": srv.Addr, "env": cfg.AppEnv, "version": cfg.Version})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.WithError(err).Error("server exited with error", nil)
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed", nil)
	}
	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}
