package ledger

import (
	"context"
	"fmt"
	"strings"

	"trade-tracker/models"
	"trade-tracker/observability"
	"trade-tracker/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine is the accounting state machine over the position store. It owns
// every rule about how a position's cost basis, remaining percent and
// status may change; the store stays a dumb CRUD layer.
//
// Operations are deterministic: the same starting state and inputs always
// produce the same resulting state and reported figures.
type Engine struct {
	store repository.PositionStore
	locks *keyLock
}

// NewEngine creates a new Engine over the given store
func NewEngine(store repository.PositionStore) *Engine {
	return &Engine{
		store: store,
		locks: newKeyLock(),
	}
}

// OpenParams are the inputs for opening a new position
type OpenParams struct {
	Ticker     string
	Class      models.InstrumentClass
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
	OriginRef  string
}

// AccumulateResult reports the cost basis after a DCA buy
type AccumulateResult struct {
	Position     models.Position
	NewAvgPrice  decimal.Decimal
	NewTotalSize decimal.Decimal
}

// SellResult reports the outcome of a partial sell. PnLPercent is the
// realized gain of the sold slice against the average entry price; it is
// reported, not persisted.
type SellResult struct {
	Position         models.Position
	PercentSold      int
	RemainingPercent int
	Status           models.PositionStatus
	PnLPercent       decimal.Decimal
}

// Closed reports whether the sell exhausted the position.
func (r *SellResult) Closed() bool {
	return r.RemainingPercent == 0
}

// CloseResult reports the outcome of closing a position in full
type CloseResult struct {
	Position   models.Position
	ExitPrice  decimal.Decimal
	PnLPercent decimal.Decimal
}

// Open creates a new position for the (ticker, class) pair. It fails with
// ErrAlreadyOpen when a non-closed position for the pair exists, and with
// ErrInvalidArguments when the price or size is not positive.
func (e *Engine) Open(ctx context.Context, p OpenParams) (*models.Position, error) {
	ticker, err := normalizeTicker(p.Ticker)
	if err != nil {
		return nil, e.reject("open", err)
	}
	if !p.EntryPrice.IsPositive() || !p.Size.IsPositive() {
		return nil, e.reject("open", fmt.Errorf("%w: entry price and size must be positive", ErrInvalidArguments))
	}

	unlock := e.locks.acquire(lockKey(ticker, p.Class))
	defer unlock()

	existing, err := e.store.GetOpenPosition(ctx, ticker, p.Class)
	if err != nil {
		return nil, e.storeFailed("open", err)
	}
	if existing != nil {
		return nil, e.reject("open", fmt.Errorf("%w: %s %s", ErrAlreadyOpen, p.Class, ticker))
	}

	pos, err := e.store.CreatePosition(ctx, ticker, p.Class, p.EntryPrice, p.Size, p.OriginRef)
	if err != nil {
		return nil, e.storeFailed("open", err)
	}

	e.logOp("open", pos, "entry_price", p.EntryPrice, "size", p.Size)
	observability.GetMetrics().RecordLedgerOperation("open", "ok")
	return pos, nil
}

// Accumulate buys more of an open position and reblends the average entry
// price: newAvg = (avg*size + addPrice*addSize) / (size + addSize).
func (e *Engine) Accumulate(ctx context.Context, class models.InstrumentClass, ticker string, addSize, addPrice decimal.Decimal) (*AccumulateResult, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, e.reject("accumulate", err)
	}
	if !addSize.IsPositive() || !addPrice.IsPositive() {
		return nil, e.reject("accumulate", fmt.Errorf("%w: add size and price must be positive", ErrInvalidArguments))
	}

	unlock := e.locks.acquire(lockKey(ticker, class))
	defer unlock()

	pos, err := e.store.GetOpenPosition(ctx, ticker, class)
	if err != nil {
		return nil, e.storeFailed("accumulate", err)
	}
	if pos == nil {
		return nil, e.reject("accumulate", fmt.Errorf("%w: %s %s", ErrNotFound, class, ticker))
	}

	newAvg, newSize := pos.BlendedEntry(addSize, addPrice)
	if err := e.store.UpdateCostBasis(ctx, pos.ID, newAvg, newSize); err != nil {
		return nil, e.storeFailed("accumulate", err)
	}

	pos.AvgEntryPrice = newAvg
	pos.TotalSize = newSize

	e.logOp("accumulate", pos, "add_size", addSize, "add_price", addPrice, "new_avg", newAvg)
	observability.GetMetrics().RecordLedgerOperation("accumulate", "ok")
	return &AccumulateResult{
		Position:     *pos,
		NewAvgPrice:  newAvg,
		NewTotalSize: newSize,
	}, nil
}

// PartialSell sells a percentage of an open position. The percent comes
// off the remaining percent; the total size and the average entry price
// are untouched. Selling the last percent closes the position.
func (e *Engine) PartialSell(ctx context.Context, class models.InstrumentClass, ticker string, percent int, exitPrice decimal.Decimal) (*SellResult, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, e.reject("partial_sell", err)
	}
	if percent < 1 || percent > 100 {
		return nil, e.reject("partial_sell", fmt.Errorf("%w: percent must be between 1 and 100, got %d", ErrInvalidArguments, percent))
	}
	if !exitPrice.IsPositive() {
		return nil, e.reject("partial_sell", fmt.Errorf("%w: exit price must be positive", ErrInvalidArguments))
	}

	unlock := e.locks.acquire(lockKey(ticker, class))
	defer unlock()

	pos, err := e.store.GetOpenPosition(ctx, ticker, class)
	if err != nil {
		return nil, e.storeFailed("partial_sell", err)
	}
	if pos == nil {
		return nil, e.reject("partial_sell", fmt.Errorf("%w: %s %s", ErrNotFound, class, ticker))
	}
	if percent > pos.RemainingPercent {
		return nil, e.reject("partial_sell", &InsufficientRemainingError{Requested: percent, Remaining: pos.RemainingPercent})
	}

	newRemaining := pos.RemainingPercent - percent
	newStatus := models.StatusForRemaining(newRemaining)
	if err := e.store.UpdateExit(ctx, pos.ID, newRemaining, newStatus); err != nil {
		return nil, e.storeFailed("partial_sell", err)
	}

	pnl := pos.PnLPercent(exitPrice)
	pos.RemainingPercent = newRemaining
	pos.Status = newStatus

	e.logOp("partial_sell", pos, "percent", percent, "exit_price", exitPrice, "pnl_percent", pnl)
	observability.GetMetrics().RecordLedgerOperation("partial_sell", "ok")
	return &SellResult{
		Position:         *pos,
		PercentSold:      percent,
		RemainingPercent: newRemaining,
		Status:           newStatus,
		PnLPercent:       pnl,
	}, nil
}

// Close closes the entire remaining position and reports the final P&L
// against the pre-close average entry price.
func (e *Engine) Close(ctx context.Context, class models.InstrumentClass, ticker string, exitPrice decimal.Decimal) (*CloseResult, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, e.reject("close", err)
	}
	if !exitPrice.IsPositive() {
		return nil, e.reject("close", fmt.Errorf("%w: exit price must be positive", ErrInvalidArguments))
	}

	unlock := e.locks.acquire(lockKey(ticker, class))
	defer unlock()

	pos, err := e.store.GetOpenPosition(ctx, ticker, class)
	if err != nil {
		return nil, e.storeFailed("close", err)
	}
	if pos == nil {
		return nil, e.reject("close", fmt.Errorf("%w: %s %s", ErrNotFound, class, ticker))
	}

	if err := e.store.UpdateExit(ctx, pos.ID, 0, models.StatusClosed); err != nil {
		return nil, e.storeFailed("close", err)
	}

	pnl := pos.PnLPercent(exitPrice)
	pos.RemainingPercent = 0
	pos.Status = models.StatusClosed

	e.logOp("close", pos, "exit_price", exitPrice, "pnl_percent", pnl)
	observability.GetMetrics().RecordLedgerOperation("close", "ok")
	return &CloseResult{
		Position:   *pos,
		ExitPrice:  exitPrice,
		PnLPercent: pnl,
	}, nil
}

func normalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("%w: ticker must not be empty", ErrInvalidArguments)
	}
	return ticker, nil
}

func lockKey(ticker string, class models.InstrumentClass) string {
	return ticker + "/" + string(class)
}

// reject records a precondition failure and passes the error through
// unchanged so callers can match the sentinel.
func (e *Engine) reject(operation string, err error) error {
	observability.GetMetrics().RecordLedgerOperation(operation, "rejected")
	return err
}

// storeFailed wraps a repository error; it is deliberately not one of the
// sentinel errors so callers surface it as a generic failure.
func (e *Engine) storeFailed(operation string, err error) error {
	observability.GetMetrics().RecordLedgerOperation(operation, "storage_error")
	observability.Error("ledger storage failure", "operation", operation, "error", err)
	return fmt.Errorf("%s: %w", operation, err)
}

func (e *Engine) logOp(operation string, pos *models.Position, args ...any) {
	fields := append([]any{
		"operation", operation,
		"op_id", uuid.New().String(),
		"position_id", pos.ID,
		"instrument_class", pos.Class,
		"status", pos.Status,
		"remaining_percent", pos.RemainingPercent,
	}, args...)
	observability.WithTicker(pos.Ticker).Info("ledger operation applied", fields...)
}
