package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PortfolioFilter restricts a portfolio snapshot to one instrument class.
type PortfolioFilter string

const (
	FilterAll     PortfolioFilter = "ALL"
	FilterSpot    PortfolioFilter = "SPOT"
	FilterFutures PortfolioFilter = "FUTURES"
)

// ParsePortfolioFilter parses a filter such as "spot", "futures" or "all".
func ParsePortfolioFilter(s string) (PortfolioFilter, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(FilterAll):
		return FilterAll, nil
	case string(FilterSpot):
		return FilterSpot, nil
	case string(FilterFutures):
		return FilterFutures, nil
	default:
		return "", fmt.Errorf("unknown portfolio filter %q", s)
	}
}

// Includes reports whether positions of the given class pass the filter.
func (f PortfolioFilter) Includes(class InstrumentClass) bool {
	switch f {
	case FilterSpot:
		return class == ClassSpot
	case FilterFutures:
		return class == ClassFutures
	default:
		return true
	}
}

// Valuation is one open position merged with a live quote. When the price
// feed could not produce a quote, Priced is false and CurrentPrice and
// PnLPercent are meaningless; the entry is still reported.
type Valuation struct {
	Position     Position        `json:"position"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PnLPercent   decimal.Decimal `json:"pnl_percent"`
	Priced       bool            `json:"priced"`
}

// PortfolioSnapshot is the result of a portfolio query: open positions
// passing the filter, grouped by instrument class, SPOT before FUTURES,
// each group in store order. OpenTotal counts every open position in the
// book regardless of the filter, so callers can tell an empty book apart
// from an empty group.
type PortfolioSnapshot struct {
	Filter    PortfolioFilter `json:"filter"`
	Spot      []Valuation     `json:"spot"`
	Futures   []Valuation     `json:"futures"`
	OpenTotal int             `json:"open_total"`
}

// Empty reports whether the snapshot has no entries at all, so callers can
// distinguish "nothing to report" from a report with entries.
func (s *PortfolioSnapshot) Empty() bool {
	return len(s.Spot) == 0 && len(s.Futures) == 0
}
