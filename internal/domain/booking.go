package domain

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingRequested BookingStatus = "REQUESTED"
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCheckedIn BookingStatus = "CHECKED_IN"
	BookingCanceled  BookingStatus = "CANCELED"
	BookingAbandoned BookingStatus = "ABANDONED"
)

var transitions = map[BookingStatus][]BookingStatus{
	BookingRequested: {BookingPending, BookingConfirmed, BookingCanceled, BookingAbandoned},
	BookingPending:   {BookingConfirmed, BookingCanceled, BookingAbandoned},
	BookingConfirmed: {BookingCheckedIn, BookingCanceled},
}

// Terminal statuses accept no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingCanceled || s == BookingAbandoned || s == BookingCheckedIn
}

// HoldsSeats reports whether bookings in this status count against capacity.
func (s BookingStatus) HoldsSeats() bool {
	switch s {
	case BookingRequested, BookingPending, BookingConfirmed, BookingCheckedIn:
		return true
	}
	return false
}

// Unconfirmed statuses are subject to the hold deadline.
func (s BookingStatus) Unconfirmed() bool {
	return s == BookingRequested || s == BookingPending
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingRequested, BookingPending, BookingConfirmed, BookingCheckedIn, BookingCanceled, BookingAbandoned:
		return true
	}
	return false
}

type Booking struct {
	ID            uuid.UUID
	ShowID        uuid.UUID
	CustomerID    uuid.UUID
	Seats         int
	Status        BookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	HoldExpiresAt time.Time
}

func NewBooking(showID, customerID uuid.UUID, seats int, now time.Time, holdTTL time.Duration) Booking {
	return Booking{
		ID:            uuid.New(),
		ShowID:        showID,
		CustomerID:    customerID,
		Seats:         seats,
		Status:        BookingRequested,
		CreatedAt:     now,
		UpdatedAt:     now,
		HoldExpiresAt: now.Add(holdTTL),
	}
}

// Transition moves the booking to next, or returns ErrInvalidTransition
// leaving it untouched.
func (b *Booking) Transition(next BookingStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return errors.Wrapf(ErrInvalidTransition, "booking %s: %s -> %s", b.ID, b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = now
	return nil
}

// Expired reports whether an unconfirmed booking has outlived its hold.
func (b Booking) Expired(now time.Time) bool {
	return b.Status.Unconfirmed() && !b.HoldExpiresAt.IsZero() && !now.Before(b.HoldExpiresAt)
}
