package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"trade-tracker/models"

	"github.com/shopspring/decimal"
)

// getTestDB returns a repository connected to the test database.
// If DATABASE_URL is not set, the test is skipped.
func getTestDB(t *testing.T) *Repository {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, err := NewRepository(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return repo
}

// cleanupPositions removes all test positions
func cleanupPositions(t *testing.T, repo *Repository) {
	t.Helper()
	ctx := context.Background()
	repo.pool.Exec(ctx, "DELETE FROM positions WHERE ticker LIKE 'TEST%'")
}

func TestPositionLifecycle(t *testing.T) {
	repo := getTestDB(t)
	defer repo.Close()
	defer cleanupPositions(t, repo)

	ctx := context.Background()

	created, err := repo.CreatePosition(ctx, "TESTBTC", models.ClassSpot,
		decimal.NewFromInt(50000), decimal.NewFromFloat(1.5), "https://t.me/c/1/2")
	if err != nil {
		t.Fatalf("CreatePosition() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("CreatePosition() should assign an id")
	}
	if created.Status != models.StatusOpen {
		t.Errorf("new position status = %v, want %v", created.Status, models.StatusOpen)
	}
	if created.RemainingPercent != 100 {
		t.Errorf("new position remaining = %d, want 100", created.RemainingPercent)
	}

	// Find it back as the open position for the pair.
	found, err := repo.GetOpenPosition(ctx, "TESTBTC", models.ClassSpot)
	if err != nil {
		t.Fatalf("GetOpenPosition() error = %v", err)
	}
	if found == nil {
		t.Fatal("GetOpenPosition() returned nil for an open position")
	}
	if found.ID != created.ID {
		t.Errorf("GetOpenPosition() id = %d, want %d", found.ID, created.ID)
	}

	// The futures namespace is independent.
	other, err := repo.GetOpenPosition(ctx, "TESTBTC", models.ClassFutures)
	if err != nil {
		t.Fatalf("GetOpenPosition(futures) error = %v", err)
	}
	if other != nil {
		t.Error("GetOpenPosition(futures) should be nil, spot and futures are separate")
	}

	// DCA write touches only price and size.
	if err := repo.UpdateCostBasis(ctx, created.ID, decimal.NewFromInt(45000), decimal.NewFromInt(3)); err != nil {
		t.Fatalf("UpdateCostBasis() error = %v", err)
	}
	found, err = repo.GetOpenPosition(ctx, "TESTBTC", models.ClassSpot)
	if err != nil || found == nil {
		t.Fatalf("GetOpenPosition() after dca error = %v", err)
	}
	if !found.AvgEntryPrice.Equal(decimal.NewFromInt(45000)) {
		t.Errorf("avg price = %v, want 45000", found.AvgEntryPrice)
	}
	if found.RemainingPercent != 100 {
		t.Errorf("dca must not touch remaining percent, got %d", found.RemainingPercent)
	}

	// Exit write touches only remaining percent and status.
	if err := repo.UpdateExit(ctx, created.ID, 40, models.StatusPartiallySold); err != nil {
		t.Fatalf("UpdateExit() error = %v", err)
	}
	found, err = repo.GetOpenPosition(ctx, "TESTBTC", models.ClassSpot)
	if err != nil || found == nil {
		t.Fatalf("GetOpenPosition() after sell error = %v", err)
	}
	if found.RemainingPercent != 40 || found.Status != models.StatusPartiallySold {
		t.Errorf("after sell remaining=%d status=%v, want 40 PARTIALLY_SOLD", found.RemainingPercent, found.Status)
	}
	if !found.AvgEntryPrice.Equal(decimal.NewFromInt(45000)) {
		t.Error("sell must not touch the average entry price")
	}

	// Closing removes it from open queries but keeps the row.
	if err := repo.UpdateExit(ctx, created.ID, 0, models.StatusClosed); err != nil {
		t.Fatalf("UpdateExit(close) error = %v", err)
	}
	found, err = repo.GetOpenPosition(ctx, "TESTBTC", models.ClassSpot)
	if err != nil {
		t.Fatalf("GetOpenPosition() after close error = %v", err)
	}
	if found != nil {
		t.Error("closed position should not be returned by GetOpenPosition")
	}
}

func TestGetOpenPositions_Order(t *testing.T) {
	repo := getTestDB(t)
	defer repo.Close()
	defer cleanupPositions(t, repo)

	ctx := context.Background()

	tickers := []string{"TESTAAA", "TESTBBB", "TESTCCC"}
	for _, ticker := range tickers {
		if _, err := repo.CreatePosition(ctx, ticker, models.ClassSpot,
			decimal.NewFromInt(10), decimal.NewFromInt(1), ""); err != nil {
			t.Fatalf("CreatePosition(%s) error = %v", ticker, err)
		}
	}

	positions, err := repo.GetOpenPositions(ctx)
	if err != nil {
		t.Fatalf("GetOpenPositions() error = %v", err)
	}

	var got []string
	for _, p := range positions {
		if len(p.Ticker) >= 4 && p.Ticker[:4] == "TEST" {
			got = append(got, p.Ticker)
		}
	}
	if len(got) != len(tickers) {
		t.Fatalf("GetOpenPositions() returned %d test rows, want %d", len(got), len(tickers))
	}
	for i, ticker := range tickers {
		if got[i] != ticker {
			t.Errorf("position %d = %s, want %s (insertion order)", i, got[i], ticker)
		}
	}
}

func TestOpenUniqueIndex(t *testing.T) {
	repo := getTestDB(t)
	defer repo.Close()
	defer cleanupPositions(t, repo)

	ctx := context.Background()

	if _, err := repo.CreatePosition(ctx, "TESTDUP", models.ClassSpot,
		decimal.NewFromInt(10), decimal.NewFromInt(1), ""); err != nil {
		t.Fatalf("CreatePosition() error = %v", err)
	}

	// A second open row for the same pair must be rejected by the partial
	// unique index even if the engine pre-check were bypassed.
	if _, err := repo.CreatePosition(ctx, "TESTDUP", models.ClassSpot,
		decimal.NewFromInt(20), decimal.NewFromInt(1), ""); err == nil {
		t.Error("second open position for the same pair should violate the unique index")
	}
}

func TestWithTxRollback(t *testing.T) {
	repo := getTestDB(t)
	defer repo.Close()
	defer cleanupPositions(t, repo)

	ctx := context.Background()

	tx, txRepo, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}

	_, err = txRepo.CreatePosition(ctx, "TESTTX", models.ClassSpot,
		decimal.NewFromInt(100), decimal.NewFromInt(1), "")
	if err != nil {
		t.Fatalf("CreatePosition() in tx error = %v", err)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	pos, err := repo.GetOpenPosition(ctx, "TESTTX", models.ClassSpot)
	if err != nil {
		t.Fatalf("GetOpenPosition() error = %v", err)
	}
	if pos != nil {
		t.Error("position should not survive a rolled back transaction")
	}
}
