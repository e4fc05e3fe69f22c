package rabbit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/robertarktes/movie-reservations/internal/domain"
)

const Exchange = "movie.bookings"

// BookingMessage is the JSON body of a booking event.
type BookingMessage struct {
	EventType  string    `json:"event_type"`
	BookingID  uuid.UUID `json:"booking_id"`
	ShowID     uuid.UUID `json:"show_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Seats      int       `json:"seats"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingMessage(ev domain.BookingEvent) BookingMessage {
	return BookingMessage{
		EventType:  string(ev.Type),
		BookingID:  ev.Booking.ID,
		ShowID:     ev.Booking.ShowID,
		CustomerID: ev.Booking.CustomerID,
		Seats:      ev.Booking.Seats,
		Status:     string(ev.Booking.Status),
		OccurredAt: ev.OccurredAt,
	}
}

func DecodeBookingMessage(body []byte) (BookingMessage, error) {
	var msg BookingMessage
	err := json.Unmarshal(body, &msg)
	return msg, err
}
