package portfolio

import (
	"context"
	"sync"

	"trade-tracker/models"
	"trade-tracker/observability"
	"trade-tracker/repository"
	"trade-tracker/services"
)

// Reporter builds read-only snapshots of the open book with live prices.
// It never writes to the store, so it takes no locks; a snapshot is a
// consistent read of whatever the store returned at that instant.
type Reporter struct {
	store  repository.PositionStore
	quotes services.QuoteService
}

// NewReporter creates a new Reporter over the given store and quote service
func NewReporter(store repository.PositionStore, quotes services.QuoteService) *Reporter {
	return &Reporter{
		store:  store,
		quotes: quotes,
	}
}

// Snapshot loads the open positions matching the filter and prices each
// one. Positions outside the filter are counted in OpenTotal but never
// quoted. Quotes are fetched concurrently; a position whose quote is
// unavailable stays in the snapshot with Priced set to false rather than
// failing the whole report.
func (r *Reporter) Snapshot(ctx context.Context, filter models.PortfolioFilter) (*models.PortfolioSnapshot, error) {
	positions, err := r.store.GetOpenPositions(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Position, 0, len(positions))
	for _, pos := range positions {
		if filter.Includes(pos.Class) {
			matched = append(matched, pos)
		}
	}

	valuations := make([]models.Valuation, len(matched))
	var wg sync.WaitGroup
	for i, pos := range matched {
		wg.Add(1)
		go func(i int, pos models.Position) {
			defer wg.Done()
			valuations[i] = r.value(ctx, pos)
		}(i, pos)
	}
	wg.Wait()

	snapshot := &models.PortfolioSnapshot{Filter: filter, OpenTotal: len(positions)}
	for _, v := range valuations {
		switch v.Position.Class {
		case models.ClassSpot:
			snapshot.Spot = append(snapshot.Spot, v)
		case models.ClassFutures:
			snapshot.Futures = append(snapshot.Futures, v)
		}
	}

	r.recordGauges(positions)
	return snapshot, nil
}

// value prices a single position. The quote service reports availability
// as a boolean, never an error: an unpriced entry is a normal outcome.
func (r *Reporter) value(ctx context.Context, pos models.Position) models.Valuation {
	price, ok := r.quotes.Quote(ctx, pos.Ticker)
	if !ok {
		observability.WithTicker(pos.Ticker).Debug("snapshot entry left unpriced")
		return models.Valuation{Position: pos}
	}
	return models.Valuation{
		Position:     pos,
		CurrentPrice: price,
		PnLPercent:   pos.PnLPercent(price),
		Priced:       true,
	}
}

func (r *Reporter) recordGauges(positions []models.Position) {
	counts := map[models.InstrumentClass]int{
		models.ClassSpot:    0,
		models.ClassFutures: 0,
	}
	for _, pos := range positions {
		counts[pos.Class]++
	}
	m := observability.GetMetrics()
	for class, count := range counts {
		m.SetOpenPositions(string(class), count)
	}
}
