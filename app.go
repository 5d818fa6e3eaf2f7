package main

import (
	"context"

	"trade-tracker/models"
	"trade-tracker/portfolio"
	"trade-tracker/repository"
)

// App bundles the pieces the HTTP surface needs. The Telegram bot talks
// to the ledger directly; the read-only API goes through here.
type App struct {
	store    repository.PositionStore
	reporter *portfolio.Reporter
	// db is the concrete repository, kept for health checks. It is nil
	// in handler tests that run against an in-memory store.
	db *repository.Repository
}

// NewApp creates a new App struct
func NewApp(store repository.PositionStore, reporter *portfolio.Reporter, db *repository.Repository) *App {
	return &App{
		store:    store,
		reporter: reporter,
		db:       db,
	}
}

// GetOpenPositions returns every open position in store order
func (a *App) GetOpenPositions(ctx context.Context) ([]models.Position, error) {
	return a.store.GetOpenPositions(ctx)
}

// GetPortfolio returns a priced snapshot of the open book
func (a *App) GetPortfolio(ctx context.Context, filter models.PortfolioFilter) (*models.PortfolioSnapshot, error) {
	return a.reporter.Snapshot(ctx, filter)
}
