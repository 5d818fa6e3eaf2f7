package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"trade-tracker/models"

	"github.com/shopspring/decimal"
)

type mockStore struct {
	getOpenPositionsFunc func(ctx context.Context) ([]models.Position, error)
}

func (m *mockStore) CreatePosition(ctx context.Context, ticker string, class models.InstrumentClass, entryPrice, size decimal.Decimal, originRef string) (*models.Position, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) GetOpenPosition(ctx context.Context, ticker string, class models.InstrumentClass) (*models.Position, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStore) UpdateCostBasis(ctx context.Context, id int64, newAvgPrice, newSize decimal.Decimal) error {
	return errors.New("not implemented")
}

func (m *mockStore) UpdateExit(ctx context.Context, id int64, remainingPercent int, status models.PositionStatus) error {
	return errors.New("not implemented")
}

func (m *mockStore) GetOpenPositions(ctx context.Context) ([]models.Position, error) {
	return m.getOpenPositionsFunc(ctx)
}

type mockQuotes struct {
	quoteFunc func(ctx context.Context, ticker string) (decimal.Decimal, bool)
}

func (m *mockQuotes) Quote(ctx context.Context, ticker string) (decimal.Decimal, bool) {
	return m.quoteFunc(ctx, ticker)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openPosition(id int64, ticker string, class models.InstrumentClass, avgEntry string) models.Position {
	return models.Position{
		ID:               id,
		Ticker:           ticker,
		Class:            class,
		AvgEntryPrice:    dec(avgEntry),
		TotalSize:        dec("1"),
		Status:           models.StatusOpen,
		RemainingPercent: 100,
	}
}

func TestSnapshotGroupsAndPrices(t *testing.T) {
	store := &mockStore{
		getOpenPositionsFunc: func(ctx context.Context) ([]models.Position, error) {
			return []models.Position{
				openPosition(1, "ETH", models.ClassFutures, "3000"),
				openPosition(2, "BTC", models.ClassSpot, "50000"),
				openPosition(3, "SOL", models.ClassSpot, "100"),
			}, nil
		},
	}
	quotes := &mockQuotes{
		quoteFunc: func(ctx context.Context, ticker string) (decimal.Decimal, bool) {
			switch ticker {
			case "BTC":
				return dec("55000"), true
			case "ETH":
				return dec("3300"), true
			case "SOL":
				return dec("90"), true
			}
			return decimal.Zero, false
		},
	}

	snapshot, err := NewReporter(store, quotes).Snapshot(context.Background(), models.FilterAll)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if len(snapshot.Spot) != 2 {
		t.Fatalf("len(Spot) = %d, want 2", len(snapshot.Spot))
	}
	if len(snapshot.Futures) != 1 {
		t.Fatalf("len(Futures) = %d, want 1", len(snapshot.Futures))
	}
	if snapshot.OpenTotal != 3 {
		t.Errorf("OpenTotal = %d, want 3", snapshot.OpenTotal)
	}

	// Store order survives within each group.
	if snapshot.Spot[0].Position.Ticker != "BTC" || snapshot.Spot[1].Position.Ticker != "SOL" {
		t.Errorf("Spot order = %s, %s; want BTC, SOL", snapshot.Spot[0].Position.Ticker, snapshot.Spot[1].Position.Ticker)
	}

	btc := snapshot.Spot[0]
	if !btc.Priced {
		t.Fatal("BTC entry not priced")
	}
	// (55000 - 50000) / 50000 * 100 = 10
	if !btc.PnLPercent.Equal(dec("10")) {
		t.Errorf("BTC PnLPercent = %s, want 10", btc.PnLPercent)
	}

	sol := snapshot.Spot[1]
	// (90 - 100) / 100 * 100 = -10
	if !sol.PnLPercent.Equal(dec("-10")) {
		t.Errorf("SOL PnLPercent = %s, want -10", sol.PnLPercent)
	}
}

func TestSnapshotFilter(t *testing.T) {
	store := &mockStore{
		getOpenPositionsFunc: func(ctx context.Context) ([]models.Position, error) {
			return []models.Position{
				openPosition(1, "BTC", models.ClassSpot, "50000"),
				openPosition(2, "ETH", models.ClassFutures, "3000"),
			}, nil
		},
	}
	var mu sync.Mutex
	var asked []string
	quotes := &mockQuotes{
		quoteFunc: func(ctx context.Context, ticker string) (decimal.Decimal, bool) {
			mu.Lock()
			asked = append(asked, ticker)
			mu.Unlock()
			return dec("1"), true
		},
	}
	reporter := NewReporter(store, quotes)

	spot, err := reporter.Snapshot(context.Background(), models.FilterSpot)
	if err != nil {
		t.Fatalf("Snapshot(SPOT) error = %v", err)
	}
	if len(spot.Spot) != 1 || len(spot.Futures) != 0 {
		t.Errorf("SPOT filter: spot=%d futures=%d, want 1/0", len(spot.Spot), len(spot.Futures))
	}
	if spot.OpenTotal != 2 {
		t.Errorf("SPOT filter: OpenTotal = %d, want 2", spot.OpenTotal)
	}
	// Filtered-out positions must not cost a quote call.
	if len(asked) != 1 || asked[0] != "BTC" {
		t.Errorf("SPOT filter quoted %v, want [BTC]", asked)
	}

	asked = nil
	futures, err := reporter.Snapshot(context.Background(), models.FilterFutures)
	if err != nil {
		t.Fatalf("Snapshot(FUTURES) error = %v", err)
	}
	if len(futures.Spot) != 0 || len(futures.Futures) != 1 {
		t.Errorf("FUTURES filter: spot=%d futures=%d, want 0/1", len(futures.Spot), len(futures.Futures))
	}
	if len(asked) != 1 || asked[0] != "ETH" {
		t.Errorf("FUTURES filter quoted %v, want [ETH]", asked)
	}
}

func TestSnapshotUnpricedEntrySurvives(t *testing.T) {
	store := &mockStore{
		getOpenPositionsFunc: func(ctx context.Context) ([]models.Position, error) {
			return []models.Position{
				openPosition(1, "BTC", models.ClassSpot, "50000"),
				openPosition(2, "DOGE", models.ClassSpot, "0.3"),
			}, nil
		},
	}
	quotes := &mockQuotes{
		quoteFunc: func(ctx context.Context, ticker string) (decimal.Decimal, bool) {
			if ticker == "BTC" {
				return dec("55000"), true
			}
			return decimal.Zero, false
		},
	}

	snapshot, err := NewReporter(store, quotes).Snapshot(context.Background(), models.FilterAll)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if len(snapshot.Spot) != 2 {
		t.Fatalf("len(Spot) = %d, want 2", len(snapshot.Spot))
	}
	if !snapshot.Spot[0].Priced {
		t.Error("BTC entry should be priced")
	}
	if snapshot.Spot[1].Priced {
		t.Error("DOGE entry should be unpriced, not dropped")
	}
}

func TestSnapshotEmpty(t *testing.T) {
	store := &mockStore{
		getOpenPositionsFunc: func(ctx context.Context) ([]models.Position, error) {
			return nil, nil
		},
	}
	quotes := &mockQuotes{
		quoteFunc: func(ctx context.Context, ticker string) (decimal.Decimal, bool) {
			t.Error("no quotes expected for an empty book")
			return decimal.Zero, false
		},
	}

	snapshot, err := NewReporter(store, quotes).Snapshot(context.Background(), models.FilterAll)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if !snapshot.Empty() {
		t.Error("Empty() = false, want true")
	}
}

func TestSnapshotStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	store := &mockStore{
		getOpenPositionsFunc: func(ctx context.Context) ([]models.Position, error) {
			return nil, boom
		},
	}
	quotes := &mockQuotes{
		quoteFunc: func(ctx context.Context, ticker string) (decimal.Decimal, bool) {
			return decimal.Zero, false
		},
	}

	_, err := NewReporter(store, quotes).Snapshot(context.Background(), models.FilterAll)
	if !errors.Is(err, boom) {
		t.Errorf("Snapshot() error = %v, want %v", err, boom)
	}
}
