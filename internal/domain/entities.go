package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type Movie struct {
	ID          uuid.UUID
	Title       string
	Description string
	Duration    time.Duration
}

func NewMovie(title, description string, minutes int) Movie {
	return Movie{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Duration:    time.Duration(minutes) * time.Minute,
	}
}

// Minutes reports the running time in whole minutes.
func (m Movie) Minutes() int {
	return int(m.Duration / time.Minute)
}

func (m Movie) Validate() error {
	if m.ID == uuid.Nil {
		return errors.Wrap(ErrInvalidRequest, "movie id is required")
	}
	if strings.TrimSpace(m.Title) == "" {
		return errors.Wrap(ErrInvalidRequest, "movie title is required")
	}
	if m.Duration < time.Minute || m.Duration%time.Minute != 0 {
		return errors.Wrapf(ErrInvalidRequest, "movie duration must be a positive number of minutes, got %s", m.Duration)
	}
	return nil
}

// Show is a single scheduled screening. Its bookings are owned by the ledger
// and referenced by ShowID.
type Show struct {
	ID         uuid.UUID
	MovieID    uuid.UUID
	StartsAt   time.Time
	TotalSeats int
}

func NewShow(movieID uuid.UUID, startsAt time.Time, totalSeats int) Show {
	return Show{
		ID:         uuid.New(),
		MovieID:    movieID,
		StartsAt:   startsAt,
		TotalSeats: totalSeats,
	}
}

func (s Show) Validate(maxSeats int) error {
	if s.ID == uuid.Nil || s.MovieID == uuid.Nil {
		return errors.Wrap(ErrInvalidRequest, "show and movie ids are required")
	}
	if s.StartsAt.IsZero() {
		return errors.Wrap(ErrInvalidRequest, "show start time is required")
	}
	if s.TotalSeats <= 0 {
		return errors.Wrapf(ErrInvalidRequest, "total seats must be positive, got %d", s.TotalSeats)
	}
	if maxSeats > 0 && s.TotalSeats > maxSeats {
		return errors.Wrapf(ErrInvalidRequest, "total seats %d exceeds limit %d", s.TotalSeats, maxSeats)
	}
	return nil
}

type Customer struct {
	ID   uuid.UUID
	Name string
}

func NewCustomer(name string) Customer {
	return Customer{ID: uuid.New(), Name: name}
}

func (c Customer) Validate() error {
	if c.ID == uuid.Nil {
		return errors.Wrap(ErrInvalidRequest, "customer id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.Wrap(ErrInvalidRequest, "customer name is required")
	}
	return nil
}
