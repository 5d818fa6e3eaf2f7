package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentClass partitions positions into independent namespaces per
// ticker: a SPOT and a FUTURES position for the same coin can be open at
// the same time.
type InstrumentClass string

const (
	ClassSpot    InstrumentClass = "SPOT"
	ClassFutures InstrumentClass = "FUTURES"
)

// ParseInstrumentClass parses a user-supplied instrument class such as
// "spot" or "FUTURES".
func ParseInstrumentClass(s string) (InstrumentClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ClassSpot):
		return ClassSpot, nil
	case string(ClassFutures), "FUTURE":
		return ClassFutures, nil
	default:
		return "", fmt.Errorf("unknown instrument class %q", s)
	}
}

// PositionStatus is derived from the remaining percent and stored for
// queryability. Use StatusForRemaining instead of setting it directly.
type PositionStatus string

const (
	StatusOpen          PositionStatus = "OPEN"
	StatusPartiallySold PositionStatus = "PARTIALLY_SOLD"
	StatusClosed        PositionStatus = "CLOSED"
)

// StatusForRemaining returns the status implied by a remaining percent.
// Status and remaining percent must never drift apart; every mutation
// recomputes status through this function.
func StatusForRemaining(remainingPercent int) PositionStatus {
	switch {
	case remainingPercent <= 0:
		return StatusClosed
	case remainingPercent >= 100:
		return StatusOpen
	default:
		return StatusPartiallySold
	}
}

// Position is one spot or futures trade tracked by the admin. A closed
// position is never deleted; it simply stops matching open queries.
type Position struct {
	ID               int64           `json:"id"`
	Ticker           string          `json:"ticker"`
	Class            InstrumentClass `json:"instrument_class"`
	AvgEntryPrice    decimal.Decimal `json:"average_entry_price"`
	TotalSize        decimal.Decimal `json:"total_position_size"`
	Status           PositionStatus  `json:"status"`
	RemainingPercent int             `json:"remaining_percent"`
	OriginRef        string          `json:"origin_reference"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsOpen reports whether the position still counts toward open-position
// queries.
func (p *Position) IsOpen() bool {
	return p.Status != StatusClosed
}

// PnLPercent returns the percent gain or loss of exitPrice against the
// average entry price: (exit - avg) / avg * 100. The same formula serves
// realized P&L (stated exit price) and unrealized P&L (live quote).
func (p *Position) PnLPercent(exitPrice decimal.Decimal) decimal.Decimal {
	return exitPrice.Sub(p.AvgEntryPrice).
		Div(p.AvgEntryPrice).
		Mul(decimal.NewFromInt(100))
}

// BlendedEntry computes the weighted average entry price and total size
// after buying addSize more units at addPrice:
//
//	newAvg = (avg*size + addPrice*addSize) / (size + addSize)
//
// TotalSize is cumulative units ever bought; partial sells reduce the
// remaining percent, never the size.
func (p *Position) BlendedEntry(addSize, addPrice decimal.Decimal) (newAvg, newSize decimal.Decimal) {
	newSize = p.TotalSize.Add(addSize)
	newAvg = p.AvgEntryPrice.Mul(p.TotalSize).
		Add(addPrice.Mul(addSize)).
		Div(newSize)
	return newAvg, newSize
}
