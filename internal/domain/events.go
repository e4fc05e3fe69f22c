package domain

import "time"

type BookingEventType string

const (
	EventBookingRequested BookingEventType = "booking.requested"
	EventBookingPending   BookingEventType = "booking.pending"
	EventBookingConfirmed BookingEventType = "booking.confirmed"
	EventBookingCheckedIn BookingEventType = "booking.checked_in"
	EventBookingCanceled  BookingEventType = "booking.canceled"
	EventBookingAbandoned BookingEventType = "booking.abandoned"
)

// BookingEvent is emitted after a booking was created or changed status.
type BookingEvent struct {
	Type       BookingEventType
	Booking    Booking
	OccurredAt time.Time
}

func EventFor(b Booking, at time.Time) BookingEvent {
	t := EventBookingRequested
	switch b.Status {
	case BookingPending:
		t = EventBookingPending
	case BookingConfirmed:
		t = EventBookingConfirmed
	case BookingCheckedIn:
		t = EventBookingCheckedIn
	case BookingCanceled:
		t = EventBookingCanceled
	case BookingAbandoned:
		t = EventBookingAbandoned
	}
	return BookingEvent{Type: t, Booking: b, OccurredAt: at}
}
