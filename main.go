package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trade-tracker/bot"
	"trade-tracker/config"
	"trade-tracker/ledger"
	"trade-tracker/observability"
	"trade-tracker/portfolio"
	"trade-tracker/repository"
	"trade-tracker/services"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	observability.InitLogger(cfg.Production)
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		observability.Fatal("database connection failed", "error", err)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		observability.Fatal("schema migration failed", "error", err)
	}

	quotes := services.NewCoinGeckoService(
		cfg.CoinGecko.BaseURL,
		time.Duration(cfg.CoinGecko.TimeoutSeconds)*time.Second,
		cfg.CoinGecko.MaxRetries,
	)
	pollTimeout := time.Duration(cfg.Telegram.PollTimeoutSeconds) * time.Second
	telegram := services.NewTelegramService(cfg.Telegram.Token, pollTimeout)

	engine := ledger.NewEngine(repo)
	reporter := portfolio.NewReporter(repo, quotes)

	if !cfg.HasAdmin() {
		observability.Warn("TELEGRAM_ADMIN_ID not set, trade commands accept any group sender")
	}

	tradeBot := bot.New(telegram, engine, reporter, cfg.Telegram.AdminID, pollTimeout)
	botDone := make(chan error, 1)
	go func() {
		botDone <- tradeBot.Run(ctx)
	}()

	app := NewApp(repo, reporter, repo)
	server := &http.Server{
		Addr:    cfg.HTTP.ListenAddr,
		Handler: NewRouter(NewAPIHandler(app), cfg),
	}
	go func() {
		observability.Info("http server listening", "addr", cfg.HTTP.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	observability.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("http shutdown failed", "error", err)
	}

	if err := <-botDone; err != nil && !errors.Is(err, context.Canceled) {
		observability.Error("bot stopped with error", "error", err)
	}

	observability.Info("shutdown complete")
	os.Exit(0)
}
