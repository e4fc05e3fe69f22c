package rabbit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/robertarktes/movie-reservations/internal/adapters/rabbit"
	"github.com/robertarktes/movie-reservations/internal/domain"
)

func TestBookingMessage(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	b := domain.NewBooking(uuid.New(), uuid.New(), 3, now, time.Minute)

	msg := rabbit.NewBookingMessage(domain.EventFor(b, now))
	assert.Equal(t, "booking.requested", msg.EventType)
	assert.Equal(t, "REQUESTED", msg.Status)
	assert.Equal(t, b.ID, msg.BookingID)
	assert.Equal(t, 3, msg.Seats)

	_, err := rabbit.DecodeBookingMessage([]byte("not json"))
	assert.Error(t, err)
}

func TestRabbit_PublishAndConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-management",
			ExposedPorts: []string{"5672/tcp", "15672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	endpoint, err := container.PortEndpoint(ctx, "5672/tcp", "amqp")
	require.NoError(t, err)

	conn, err := amqp.Dial(endpoint)
	require.NoError(t, err)
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "bookings.test", "booking.*")
	require.NoError(t, err)
	defer consumer.Close()
	publisher, err := rabbit.NewPublisher(conn)
	require.NoError(t, err)
	defer publisher.Close()

	consumeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	deliveries, err := consumer.Consume(consumeCtx)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	b := domain.NewBooking(uuid.New(), uuid.New(), 2, now, time.Minute)
	require.NoError(t, publisher.Deliver(ctx, domain.EventFor(b, now)))

	select {
	case d := <-deliveries:
		assert.Equal(t, "booking.requested", d.RoutingKey)
		msg, err := rabbit.DecodeBookingMessage(d.Body)
		require.NoError(t, err)
		assert.Equal(t, b.ID, msg.BookingID)
		assert.True(t, now.Equal(msg.OccurredAt))
		require.NoError(t, d.Ack(false))
	case <-consumeCtx.Done():
		t.Fatal("timed out waiting for booking event")
	}
}
