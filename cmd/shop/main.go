// Package main запускает HTTP-сервер интернет-магазина.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/online-shop/internal/config"
	"github.com/mmeshcher/online-shop/internal/credential"
	"github.com/mmeshcher/online-shop/internal/handler"
	"github.com/mmeshcher/online-shop/internal/middleware"
	"github.com/mmeshcher/online-shop/internal/payment"
	"github.com/mmeshcher/online-shop/internal/repository"
	"github.com/mmeshcher/online-shop/internal/service"
	"github.com/mmeshcher/online-shop/internal/session"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.Open(ctx, cfg.DatabaseURI, cfg.DatabaseName)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	store, err := session.Open(ctx, cfg.SessionStoreURI, cfg.DatabaseName, cfg.SessionMaxAge)
	if err != nil {
		sugar.Fatalw("session store initialization error", "error", err.Error())
	}
	defer store.Close()

	if cfg.SessionSecret == "" {
		sugar.Warn("SESSION_SECRET is not set, sessions will not survive a restart")
	}
	if cfg.PaymentAPIKey == "" {
		sugar.Warn("PAYMENT_API_KEY is not set, checkout requests will be rejected by the provider")
	}

	creds := credential.NewStore(repo, cfg.BcryptCost)
	payments := payment.NewClient(cfg.PaymentAPIAddress, cfg.PaymentAPIKey, cfg.PaymentCurrency)
	svc := service.NewService(repo, creds, payments, cfg.BaseURL)

	sessions := middleware.NewSessionMiddleware(cfg.SessionSecret, store, cfg.SessionMaxAge, logger)
	h := handler.NewHandler(svc, logger, sessions)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting online shop server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown по сигналу или при ошибке сервера.
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("application terminated with error", "error", err)
	}
}
