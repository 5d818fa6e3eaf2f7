package repository

import (
	"context"
	"fmt"
)

// schema holds the position ledger table. Positions are keyed by a
// monotonic surrogate id; the partial unique index backs the rule that at
// most one non-CLOSED position exists per (ticker, instrument_class).
const schema = `
CREATE TABLE IF NOT EXISTS positions (
	id                BIGSERIAL PRIMARY KEY,
	ticker            TEXT NOT NULL,
	instrument_class  TEXT NOT NULL,
	avg_entry_price   NUMERIC NOT NULL CHECK (avg_entry_price > 0),
	total_size        NUMERIC NOT NULL CHECK (total_size > 0),
	status            TEXT NOT NULL,
	remaining_percent INT NOT NULL CHECK (remaining_percent BETWEEN 0 AND 100),
	origin_ref        TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS positions_open_unique
	ON positions (ticker, instrument_class)
	WHERE status != 'CLOSED';
`

// Migrate creates the positions table and indexes if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
