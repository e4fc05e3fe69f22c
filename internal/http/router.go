package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robertarktes/movie-reservations/internal/idempotency"
	"github.com/robertarktes/movie-reservations/internal/observability"
	"github.com/robertarktes/movie-reservations/internal/rateLimit"
)

type RouterOptions struct {
	Idempotency *idempotency.Idempotency
	RateLimiter *rateLimit.RateLimiter
	PerMinute   int
}

// SetupRouter mounts the API. Idempotency and rate limiting are skipped when
// not configured.
func SetupRouter(h *Handlers, logger observability.Logger, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(RateLimitMiddleware(opts.RateLimiter, opts.PerMinute))
		}
		if opts.Idempotency != nil {
			r.Use(IdempotencyMiddleware(opts.Idempotency, logger))
		}

		r.Post("/v1/movies", h.CreateMovie)
		r.Get("/v1/movies", h.ListMovies)
		r.Get("/v1/movies/{id}", h.GetMovie)
		r.Get("/v1/movies/{id}/shows", h.ListMovieShows)

		r.Post("/v1/shows", h.CreateShow)
		r.Get("/v1/shows", h.FindShow)
		r.Get("/v1/shows/{id}", h.GetShow)
		r.Get("/v1/shows/{id}/bookings", h.ListShowBookings)

		r.Post("/v1/customers", h.CreateCustomer)
		r.Get("/v1/customers/{id}/bookings", h.CustomerHistory)

		r.Post("/v1/bookings", h.CreateBooking)
		r.Get("/v1/bookings/{id}", h.GetBooking)
		r.Post("/v1/bookings/{id}/pending", h.transition(h.svc.MarkPending))
		r.Post("/v1/bookings/{id}/confirm", h.transition(h.svc.Confirm))
		r.Post("/v1/bookings/{id}/cancel", h.transition(h.svc.Cancel))
		r.Post("/v1/bookings/{id}/check-in", h.transition(h.svc.CheckIn))
	})

	return r
}
