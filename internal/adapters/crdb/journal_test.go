package crdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/robertarktes/movie-reservations/internal/adapters/crdb"
	"github.com/robertarktes/movie-reservations/internal/domain"
)

func startCockroach(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp", "8080/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "postgresql")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, endpoint+"/defaultdb?sslmode=disable&user=root")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestJournal_DeliverAndTrail(t *testing.T) {
	pool := startCockroach(t)
	ctx := context.Background()

	journal := crdb.NewJournal(pool)
	require.NoError(t, journal.EnsureSchema(ctx))

	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	b := domain.NewBooking(uuid.New(), uuid.New(), 2, now, time.Minute)
	requested := domain.EventFor(b, now)
	require.NoError(t, journal.Deliver(ctx, requested))
	require.NoError(t, journal.Deliver(ctx, requested))

	require.NoError(t, b.Transition(domain.BookingConfirmed, now.Add(time.Second)))
	require.NoError(t, journal.Deliver(ctx, domain.EventFor(b, now.Add(time.Second))))

	rows, err := pool.Query(ctx, `
		SELECT event_type, status, seats, show_id
		FROM booking_events WHERE booking_id = $1 ORDER BY occurred_at ASC
	`, b.ID)
	require.NoError(t, err)
	type entry struct {
		eventType string
		status    string
		seats     int
		showID    uuid.UUID
	}
	trail, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entry, error) {
		var e entry
		err := row.Scan(&e.eventType, &e.status, &e.seats, &e.showID)
		return e, err
	})
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, string(domain.EventBookingRequested), trail[0].eventType)
	assert.Equal(t, string(domain.BookingConfirmed), trail[1].status)
	assert.Equal(t, 2, trail[1].seats)
	assert.Equal(t, b.ShowID, trail[1].showID)
}
