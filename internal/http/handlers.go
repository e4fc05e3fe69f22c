package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/observability"
	"github.com/robertarktes/movie-reservations/internal/reservation"
)

// MovieStore mirrors movies created over the API to the catalog seed source.
type MovieStore interface {
	SaveMovie(ctx context.Context, m domain.Movie) error
}

type Handlers struct {
	svc    *reservation.Service
	movies MovieStore
	logger observability.Logger
}

// NewHandlers wires the API to svc. movies may be nil.
func NewHandlers(svc *reservation.Service, movies MovieStore, logger observability.Logger) *Handlers {
	return &Handlers{svc: svc, movies: movies, logger: logger}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if !decode(w, r, &req) {
		return
	}

	movie := domain.NewMovie(req.Title, req.Description, req.DurationMinutes)
	if err := h.svc.AddMovie(r.Context(), movie); err != nil {
		writeDomainError(w, err)
		return
	}
	if h.movies != nil {
		if err := h.movies.SaveMovie(r.Context(), movie); err != nil {
			h.logger.WithField("movie_id", movie.ID).WithError(err).Warn("movie not mirrored to catalog store")
		}
	}
	writeJSON(w, http.StatusCreated, toMovie(movie))
}

func (h *Handlers) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies := h.svc.ListMovies(r.Context())
	resp := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		resp = append(resp, toMovie(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	movie, err := h.svc.GetMovie(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovie(movie))
}

func (h *Handlers) ListMovieShows(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	shows, err := h.svc.ShowsForMovie(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]showResponse, 0, len(shows))
	for _, s := range shows {
		resp = append(resp, toShow(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) CreateShow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MovieID    uuid.UUID `json:"movie_id"`
		StartsAt   time.Time `json:"starts_at"`
		TotalSeats int       `json:"total_seats"`
	}
	if !decode(w, r, &req) {
		return
	}

	show := domain.NewShow(req.MovieID, req.StartsAt, req.TotalSeats)
	if err := h.svc.AddShow(r.Context(), show); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShow(show))
}

// FindShow handles GET /v1/shows?movie_id=...&starts_at=RFC3339.
func (h *Handlers) FindShow(w http.ResponseWriter, r *http.Request) {
	movieID, err := uuid.Parse(r.URL.Query().Get("movie_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid movie_id")
		return
	}
	startsAt, err := time.Parse(time.RFC3339, r.URL.Query().Get("starts_at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "starts_at must be RFC3339")
		return
	}

	show, err := h.svc.FindShow(r.Context(), movieID, startsAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	avail, err := h.svc.ShowAvailability(r.Context(), show.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailability(avail))
}

func (h *Handlers) GetShow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	avail, err := h.svc.ShowAvailability(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailability(avail))
}

func (h *Handlers) ListShowBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bookings, err := h.svc.ShowBookings(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBooking(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	customer := domain.NewCustomer(req.Name)
	if err := h.svc.RegisterCustomer(r.Context(), customer); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customerResponse{ID: customer.ID, Name: customer.Name})
}

func (h *Handlers) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	history, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := []bookingResponse{}
	for b := range history {
		resp = append(resp, toBooking(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateBooking reserves seats either on show_id or on the show of movie_id
// starting at starts_at.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShowID     uuid.UUID  `json:"show_id"`
		MovieID    uuid.UUID  `json:"movie_id"`
		StartsAt   *time.Time `json:"starts_at"`
		CustomerID uuid.UUID  `json:"customer_id"`
		Seats      int        `json:"seats"`
	}
	if !decode(w, r, &req) {
		return
	}

	var (
		b   domain.Booking
		err error
	)
	switch {
	case req.ShowID != uuid.Nil:
		b, err = h.svc.Reserve(r.Context(), req.ShowID, req.CustomerID, req.Seats)
	case req.MovieID != uuid.Nil && req.StartsAt != nil:
		b, err = h.svc.ReserveByMovie(r.Context(), req.MovieID, *req.StartsAt, req.CustomerID, req.Seats)
	default:
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "show_id or movie_id with starts_at is required")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBooking(b))
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.svc.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBooking(b))
}

func (h *Handlers) transition(fn func(context.Context, uuid.UUID) (domain.Booking, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		b, err := fn(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBooking(b))
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
