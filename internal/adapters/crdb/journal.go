package crdb

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/robertarktes/movie-reservations/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS booking_events (
	id UUID PRIMARY KEY,
	booking_id UUID NOT NULL,
	show_id UUID NOT NULL,
	customer_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	status TEXT NOT NULL,
	seats INT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	dedupe_key TEXT NOT NULL UNIQUE
)`

// Journal is an append-only SQL record of booking events. Reservation state
// itself stays in memory; rows here are never read back into the ledger.
type Journal struct {
	pool *pgxpool.Pool
}

func NewJournal(pool *pgxpool.Pool) *Journal {
	return &Journal{pool: pool}
}

func (j *Journal) EnsureSchema(ctx context.Context) error {
	_, err := j.pool.Exec(ctx, schema)
	return errors.Wrap(err, "create booking_events")
}

func (j *Journal) Name() string { return "crdb-journal" }

// Deliver records ev once; a redelivery of the same event is absorbed by the
// dedupe key.
func (j *Journal) Deliver(ctx context.Context, ev domain.BookingEvent) error {
	b := ev.Booking
	_, err := j.pool.Exec(ctx, `
		INSERT INTO booking_events (id, booking_id, show_id, customer_id, event_type, status, seats, occurred_at, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (dedupe_key) DO NOTHING
	`, uuid.New(), b.ID, b.ShowID, b.CustomerID, string(ev.Type), string(b.Status), b.Seats, ev.OccurredAt, dedupeKey(ev))
	return errors.Wrapf(err, "journal %s for booking %s", ev.Type, b.ID)
}

func dedupeKey(ev domain.BookingEvent) string {
	return fmt.Sprintf("%s:%s:%d", ev.Booking.ID, ev.Type, ev.OccurredAt.UnixNano())
}
