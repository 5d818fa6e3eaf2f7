package repository

import (
	"context"
	"errors"
	"fmt"

	"trade-tracker/models"
	"trade-tracker/observability"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const positionColumns = `id, ticker, instrument_class, avg_entry_price, total_size,
	status, remaining_percent, origin_ref, created_at, updated_at`

func scanPosition(row pgx.Row) (*models.Position, error) {
	var p models.Position
	err := row.Scan(&p.ID, &p.Ticker, &p.Class, &p.AvgEntryPrice, &p.TotalSize,
		&p.Status, &p.RemainingPercent, &p.OriginRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePosition inserts a new position with status OPEN and the full
// remaining percent, and returns the stored row with its assigned id.
func (r *Repository) CreatePosition(ctx context.Context, ticker string, class models.InstrumentClass, entryPrice, size decimal.Decimal, originRef string) (*models.Position, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "positions")

	row := r.db.QueryRow(ctx, `
		INSERT INTO positions (ticker, instrument_class, avg_entry_price, total_size, status, remaining_percent, origin_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+positionColumns+`
	`, ticker, class, entryPrice, size, models.StatusOpen, 100, originRef)

	p, err := scanPosition(row)
	if err != nil {
		metrics.RecordDBError("insert", "positions")
		return nil, fmt.Errorf("failed to create position: %w", err)
	}
	return p, nil
}

// GetOpenPosition returns the non-CLOSED position for the (ticker, class)
// pair, or nil if there is none.
func (r *Repository) GetOpenPosition(ctx context.Context, ticker string, class models.InstrumentClass) (*models.Position, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "positions")

	row := r.db.QueryRow(ctx, `
		SELECT `+positionColumns+`
		FROM positions
		WHERE ticker = $1 AND instrument_class = $2 AND status != $3
	`, ticker, class, models.StatusClosed)

	p, err := scanPosition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "positions")
		return nil, fmt.Errorf("failed to query open position: %w", err)
	}
	return p, nil
}

// UpdateCostBasis overwrites the average entry price and total size only.
func (r *Repository) UpdateCostBasis(ctx context.Context, id int64, newAvgPrice, newSize decimal.Decimal) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("update", "positions")

	tag, err := r.db.Exec(ctx, `
		UPDATE positions
		SET avg_entry_price = $2, total_size = $3, updated_at = NOW()
		WHERE id = $1
	`, id, newAvgPrice, newSize)
	if err != nil {
		metrics.RecordDBError("update", "positions")
		return fmt.Errorf("failed to update cost basis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update cost basis: position %d not found", id)
	}
	return nil
}

// UpdateExit overwrites the remaining percent and status only.
func (r *Repository) UpdateExit(ctx context.Context, id int64, remainingPercent int, status models.PositionStatus) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("update", "positions")

	tag, err := r.db.Exec(ctx, `
		UPDATE positions
		SET remaining_percent = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`, id, remainingPercent, status)
	if err != nil {
		metrics.RecordDBError("update", "positions")
		return fmt.Errorf("failed to update exit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update exit: position %d not found", id)
	}
	return nil
}

// GetOpenPositions returns all OPEN or PARTIALLY_SOLD positions in
// insertion order.
func (r *Repository) GetOpenPositions(ctx context.Context) ([]models.Position, error) {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "positions")

	rows, err := r.db.Query(ctx, `
		SELECT `+positionColumns+`
		FROM positions
		WHERE status = $1 OR status = $2
		ORDER BY id
	`, models.StatusOpen, models.StatusPartiallySold)
	if err != nil {
		metrics.RecordDBError("select", "positions")
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read open positions: %w", err)
	}

	return positions, nil
}
