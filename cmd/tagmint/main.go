package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tagmint/tagmint/internal/app"
	"github.com/tagmint/tagmint/internal/auditlog"
	"github.com/tagmint/tagmint/internal/auth"
	"github.com/tagmint/tagmint/internal/export"
	"github.com/tagmint/tagmint/internal/ledger"
	"github.com/tagmint/tagmint/internal/observability"
	"github.com/tagmint/tagmint/internal/serial"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	store, closeStore, err := app.OpenBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open blob store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	var verifier auth.Verifier
	switch cfg.AuthMode {
	case "jwt":
		verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	case "static":
		verifier = auth.NewStaticKeyVerifier(cfg.APIKeyHash, cfg.StaticIdentity)
	default:
		logger.Warn("authentication disabled", slog.String("identity", cfg.StaticIdentity))
		verifier = auth.AllowAll{Identity: auth.Identity{Email: cfg.StaticIdentity}}
	}

	metrics := observability.NewMetrics()

	serialLedger := ledger.New(store)
	auditLog := auditlog.New(store)
	idempotency := serial.NewIdempotencyStore(store)

	serialService := serial.NewService(serialLedger, auditLog, idempotency, metrics, logger)
	serialHandler := serial.NewHandler(logger, serialService, auth.RequireIdentity(verifier, logger))

	exportService := export.NewService(auditLog, metrics)
	exportHandler := export.NewHandler(logger, exportService)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		SerialHandler: serialHandler,
		ExportHandler: exportHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
