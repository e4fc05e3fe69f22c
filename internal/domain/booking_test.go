package domain_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertarktes/movie-reservations/internal/domain"
)

func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to domain.BookingStatus
		allowed  bool
	}{
		{domain.BookingRequested, domain.BookingConfirmed, true},
		{domain.BookingRequested, domain.BookingPending, true},
		{domain.BookingRequested, domain.BookingCanceled, true},
		{domain.BookingPending, domain.BookingConfirmed, true},
		{domain.BookingPending, domain.BookingCanceled, true},
		{domain.BookingPending, domain.BookingAbandoned, true},
		{domain.BookingConfirmed, domain.BookingCheckedIn, true},
		{domain.BookingConfirmed, domain.BookingCanceled, true},
		{domain.BookingConfirmed, domain.BookingAbandoned, false},
		{domain.BookingRequested, domain.BookingCheckedIn, false},
		{domain.BookingCheckedIn, domain.BookingConfirmed, false},
		{domain.BookingCheckedIn, domain.BookingCanceled, false},
		{domain.BookingCanceled, domain.BookingConfirmed, false},
		{domain.BookingAbandoned, domain.BookingConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_Classes(t *testing.T) {
	for _, s := range []domain.BookingStatus{domain.BookingCanceled, domain.BookingAbandoned, domain.BookingCheckedIn} {
		assert.True(t, s.Terminal(), s)
	}
	assert.False(t, domain.BookingConfirmed.Terminal())

	assert.True(t, domain.BookingCheckedIn.HoldsSeats())
	assert.False(t, domain.BookingCanceled.HoldsSeats())
	assert.False(t, domain.BookingAbandoned.HoldsSeats())

	assert.False(t, domain.BookingStatus("BOGUS").Valid())
}

func TestBooking_Transition(t *testing.T) {
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	b := domain.NewBooking(uuid.New(), uuid.New(), 2, now, 10*time.Minute)
	require.Equal(t, domain.BookingRequested, b.Status)
	require.Equal(t, now.Add(10*time.Minute), b.HoldExpiresAt)

	later := now.Add(time.Minute)
	require.NoError(t, b.Transition(domain.BookingConfirmed, later))
	assert.Equal(t, later, b.UpdatedAt)

	require.NoError(t, b.Transition(domain.BookingCheckedIn, later))
	err := b.Transition(domain.BookingConfirmed, later)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, domain.BookingCheckedIn, b.Status)
}

func TestBooking_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	b := domain.NewBooking(uuid.New(), uuid.New(), 1, now, 5*time.Minute)

	assert.False(t, b.Expired(now.Add(4*time.Minute)))
	assert.True(t, b.Expired(now.Add(5*time.Minute)))

	b.Status = domain.BookingConfirmed
	assert.False(t, b.Expired(now.Add(time.Hour)))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, domain.NewMovie("Movie 1", "Description 1", 120).Validate())
	assert.True(t, errors.Is(domain.NewMovie("", "x", 120).Validate(), domain.ErrInvalidRequest))
	assert.True(t, errors.Is(domain.NewMovie("Movie", "x", 0).Validate(), domain.ErrInvalidRequest))

	show := domain.NewShow(uuid.New(), time.Now(), 100)
	assert.NoError(t, show.Validate(1000))
	assert.True(t, errors.Is(show.Validate(50), domain.ErrInvalidRequest))
	show.TotalSeats = 0
	assert.True(t, errors.Is(show.Validate(0), domain.ErrInvalidRequest))

	assert.True(t, errors.Is(domain.NewCustomer("  ").Validate(), domain.ErrInvalidRequest))
}
