package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/reservation"
)

type movieResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
}

func toMovie(m domain.Movie) movieResponse {
	return movieResponse{ID: m.ID, Title: m.Title, Description: m.Description, DurationMinutes: m.Minutes()}
}

type showResponse struct {
	ID         uuid.UUID `json:"id"`
	MovieID    uuid.UUID `json:"movie_id"`
	StartsAt   time.Time `json:"starts_at"`
	TotalSeats int       `json:"total_seats"`
	Committed  *int      `json:"committed_seats,omitempty"`
	Remaining  *int      `json:"remaining_seats,omitempty"`
}

func toShow(s domain.Show) showResponse {
	return showResponse{ID: s.ID, MovieID: s.MovieID, StartsAt: s.StartsAt, TotalSeats: s.TotalSeats}
}

func toAvailability(a reservation.Availability) showResponse {
	resp := toShow(a.Show)
	resp.Committed = &a.Committed
	resp.Remaining = &a.Remaining
	return resp
}

type customerResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type bookingResponse struct {
	ID            uuid.UUID `json:"id"`
	ShowID        uuid.UUID `json:"show_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Seats         int       `json:"seats"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
}

func toBooking(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		ShowID:        b.ShowID,
		CustomerID:    b.CustomerID,
		Seats:         b.Seats,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		HoldExpiresAt: b.HoldExpiresAt,
	}
}
