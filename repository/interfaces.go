package repository

import (
	"context"

	"trade-tracker/models"

	"github.com/shopspring/decimal"
)

// PositionStore defines the storage contract the ledger and the portfolio
// reporter depend on. *Repository satisfies it; tests substitute in-memory
// fakes.
type PositionStore interface {
	CreatePosition(ctx context.Context, ticker string, class models.InstrumentClass, entryPrice, size decimal.Decimal, originRef string) (*models.Position, error)
	GetOpenPosition(ctx context.Context, ticker string, class models.InstrumentClass) (*models.Position, error)
	UpdateCostBasis(ctx context.Context, id int64, newAvgPrice, newSize decimal.Decimal) error
	UpdateExit(ctx context.Context, id int64, remainingPercent int, status models.PositionStatus) error
	GetOpenPositions(ctx context.Context) ([]models.Position, error)
}
