// Package reservation is the entry point for callers. It composes the
// catalog, show registry, customer directory and booking ledger, checks that
// referenced movies, shows and customers exist, and reports a missing
// reference as domain.ErrInvalidRequest. The underlying domain.ErrNotFound
// stays in the error chain for callers that need to tell them apart.
package reservation

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/robertarktes/movie-reservations/internal/catalog"
	"github.com/robertarktes/movie-reservations/internal/clock"
	"github.com/robertarktes/movie-reservations/internal/customers"
	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/ledger"
	"github.com/robertarktes/movie-reservations/internal/observability"
	"github.com/robertarktes/movie-reservations/internal/shows"
)

// EventSink accepts booking events after a mutation has been applied.
type EventSink interface {
	Enqueue(ev domain.BookingEvent) bool
}

type Service struct {
	catalog   *catalog.Catalog
	shows     *shows.Registry
	customers *customers.Directory
	ledger    *ledger.Ledger

	clock  clock.Clock
	logger observability.Logger
	events EventSink
	tracer trace.Tracer

	// gauged holds the start time of every show with a seats gauge series.
	gaugeMu sync.Mutex
	gauged  map[uuid.UUID]time.Time
}

type options struct {
	holdTTL  time.Duration
	maxSeats int
	events   EventSink
}

type Option func(*options)

func WithHoldTTL(d time.Duration) Option {
	return func(o *options) { o.holdTTL = d }
}

// WithMaxShowSeats caps the capacity a show may be registered with.
func WithMaxShowSeats(n int) Option {
	return func(o *options) { o.maxSeats = n }
}

func WithEvents(sink EventSink) Option {
	return func(o *options) { o.events = sink }
}

func New(clk clock.Clock, logger observability.Logger, opts ...Option) *Service {
	o := options{holdTTL: ledger.DefaultHoldTTL}
	for _, opt := range opts {
		opt(&o)
	}

	c := catalog.New()
	l := ledger.New(clk, ledger.WithHoldTTL(o.holdTTL))
	return &Service{
		catalog:   c,
		shows:     shows.NewRegistry(c, o.maxSeats),
		customers: customers.NewDirectory(l),
		ledger:    l,
		clock:     clk,
		logger:    logger,
		events:    o.events,
		tracer:    otel.Tracer("reservation"),
		gauged:    make(map[uuid.UUID]time.Time),
	}
}

type Availability struct {
	Show      domain.Show
	Committed int
	Remaining int
}

func (s *Service) AddMovie(ctx context.Context, movie domain.Movie) (err error) {
	_, span := s.start(ctx, "AddMovie", attribute.String("movie_id", movie.ID.String()))
	defer func() { finish(span, err) }()

	if err := s.catalog.AddMovie(movie); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{"movie_id": movie.ID, "title": movie.Title}).Info("movie added")
	return nil
}

func (s *Service) GetMovie(ctx context.Context, id uuid.UUID) (movie domain.Movie, err error) {
	_, span := s.start(ctx, "GetMovie", attribute.String("movie_id", id.String()))
	defer func() { finish(span, err) }()

	movie, err = s.catalog.GetMovie(id)
	return movie, invalid(err)
}

func (s *Service) ListMovies(ctx context.Context) []domain.Movie {
	_, span := s.start(ctx, "ListMovies")
	defer span.End()

	movies := s.catalog.Movies()
	span.SetAttributes(attribute.Int("movies", len(movies)))
	return movies
}

func (s *Service) AddShow(ctx context.Context, show domain.Show) (err error) {
	_, span := s.start(ctx, "AddShow", attribute.String("show_id", show.ID.String()))
	defer func() { finish(span, err) }()

	if err := s.shows.AddShow(show); err != nil {
		return invalid(err)
	}
	s.logger.WithFields(map[string]interface{}{
		"show_id":     show.ID,
		"movie_id":    show.MovieID,
		"starts_at":   show.StartsAt.Format(time.RFC3339),
		"total_seats": show.TotalSeats,
	}).Info("show added")
	return nil
}

func (s *Service) FindShow(ctx context.Context, movieID uuid.UUID, startsAt time.Time) (show domain.Show, err error) {
	_, span := s.start(ctx, "FindShow", attribute.String("movie_id", movieID.String()))
	defer func() { finish(span, err) }()

	if _, err := s.catalog.GetMovie(movieID); err != nil {
		return domain.Show{}, invalid(err)
	}
	show, err = s.shows.FindShow(movieID, startsAt)
	return show, invalid(err)
}

func (s *Service) GetShow(ctx context.Context, id uuid.UUID) (show domain.Show, err error) {
	_, span := s.start(ctx, "GetShow", attribute.String("show_id", id.String()))
	defer func() { finish(span, err) }()

	show, err = s.shows.GetShow(id)
	return show, invalid(err)
}

// ShowsForMovie lists a movie's shows by start time.
func (s *Service) ShowsForMovie(ctx context.Context, movieID uuid.UUID) (list []domain.Show, err error) {
	_, span := s.start(ctx, "ShowsForMovie", attribute.String("movie_id", movieID.String()))
	defer func() { finish(span, err) }()

	if _, err := s.catalog.GetMovie(movieID); err != nil {
		return nil, invalid(err)
	}
	return s.shows.ShowsForMovie(movieID), nil
}

func (s *Service) ShowAvailability(ctx context.Context, showID uuid.UUID) (a Availability, err error) {
	_, span := s.start(ctx, "ShowAvailability", attribute.String("show_id", showID.String()))
	defer func() { finish(span, err) }()

	show, err := s.shows.GetShow(showID)
	if err != nil {
		return Availability{}, invalid(err)
	}
	committed := s.ledger.CommittedSeats(showID)
	return Availability{Show: show, Committed: committed, Remaining: show.TotalSeats - committed}, nil
}

func (s *Service) ShowBookings(ctx context.Context, showID uuid.UUID) (bookings []domain.Booking, err error) {
	_, span := s.start(ctx, "ShowBookings", attribute.String("show_id", showID.String()))
	defer func() { finish(span, err) }()

	if _, err := s.shows.GetShow(showID); err != nil {
		return nil, invalid(err)
	}
	return s.ledger.ShowBookings(showID), nil
}

func (s *Service) RegisterCustomer(ctx context.Context, customer domain.Customer) (err error) {
	_, span := s.start(ctx, "RegisterCustomer", attribute.String("customer_id", customer.ID.String()))
	defer func() { finish(span, err) }()

	if err := s.customers.AddCustomer(customer); err != nil {
		return err
	}
	s.logger.WithField("customer_id", customer.ID).Info("customer registered")
	return nil
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (customer domain.Customer, err error) {
	_, span := s.start(ctx, "GetCustomer", attribute.String("customer_id", id.String()))
	defer func() { finish(span, err) }()

	customer, err = s.customers.GetCustomer(id)
	return customer, invalid(err)
}

// Reserve books seats on a show for a registered customer.
func (s *Service) Reserve(ctx context.Context, showID, customerID uuid.UUID, seats int) (b domain.Booking, err error) {
	ctx, span := s.start(ctx, "Reserve",
		attribute.String("show_id", showID.String()),
		attribute.String("customer_id", customerID.String()),
		attribute.Int("seats", seats),
	)
	defer func() { finish(span, err) }()

	show, err := s.shows.GetShow(showID)
	if err != nil {
		return domain.Booking{}, invalid(err)
	}
	return s.reserve(ctx, show, customerID, seats)
}

// ReserveByMovie finds the show of movieID starting at startsAt and books
// seats on it.
func (s *Service) ReserveByMovie(ctx context.Context, movieID uuid.UUID, startsAt time.Time, customerID uuid.UUID, seats int) (b domain.Booking, err error) {
	ctx, span := s.start(ctx, "ReserveByMovie",
		attribute.String("movie_id", movieID.String()),
		attribute.String("customer_id", customerID.String()),
		attribute.Int("seats", seats),
	)
	defer func() { finish(span, err) }()

	if _, err := s.catalog.GetMovie(movieID); err != nil {
		return domain.Booking{}, invalid(err)
	}
	show, err := s.shows.FindShow(movieID, startsAt)
	if err != nil {
		return domain.Booking{}, invalid(err)
	}
	return s.reserve(ctx, show, customerID, seats)
}

func (s *Service) reserve(ctx context.Context, show domain.Show, customerID uuid.UUID, seats int) (domain.Booking, error) {
	if _, err := s.customers.GetCustomer(customerID); err != nil {
		return domain.Booking{}, invalid(err)
	}

	b, err := s.ledger.Reserve(show, customerID, seats)
	observability.BookingOperations.WithLabelValues("reserve", outcome(err)).Inc()
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"show_id":     show.ID,
			"customer_id": customerID,
			"seats":       seats,
		}).WithError(err).Warn("reservation rejected")
		return domain.Booking{}, err
	}
	s.applied(b)
	return b, nil
}

func (s *Service) MarkPending(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	return s.mutate(ctx, "MarkPending", bookingID, s.ledger.MarkPending)
}

func (s *Service) Confirm(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	return s.mutate(ctx, "Confirm", bookingID, s.ledger.Confirm)
}

// Cancel is idempotent; canceling a canceled booking returns it unchanged
// and emits no event, however many cancels race.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID) (b domain.Booking, err error) {
	_, span := s.start(ctx, "Cancel", attribute.String("booking_id", bookingID.String()))
	defer func() { finish(span, err) }()

	b, changed, err := s.ledger.Cancel(bookingID)
	result := outcome(err)
	if err == nil && !changed {
		result = "noop"
	}
	observability.BookingOperations.WithLabelValues("Cancel", result).Inc()
	if err != nil {
		return domain.Booking{}, invalid(err)
	}
	if changed {
		s.applied(b)
	}
	return b, nil
}

func (s *Service) CheckIn(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	return s.mutate(ctx, "CheckIn", bookingID, s.ledger.CheckIn)
}

func (s *Service) mutate(ctx context.Context, op string, bookingID uuid.UUID, fn func(uuid.UUID) (domain.Booking, error)) (b domain.Booking, err error) {
	_, span := s.start(ctx, op, attribute.String("booking_id", bookingID.String()))
	defer func() { finish(span, err) }()

	b, err = fn(bookingID)
	observability.BookingOperations.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		return domain.Booking{}, invalid(err)
	}
	s.applied(b)
	return b, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (b domain.Booking, err error) {
	_, span := s.start(ctx, "GetBooking", attribute.String("booking_id", id.String()))
	defer func() { finish(span, err) }()

	b, err = s.ledger.Booking(id)
	return b, invalid(err)
}

// History yields the customer's bookings in creation order. The span covers
// the lookup, not the iteration.
func (s *Service) History(ctx context.Context, customerID uuid.UUID) (seq iter.Seq[domain.Booking], err error) {
	_, span := s.start(ctx, "History", attribute.String("customer_id", customerID.String()))
	defer func() { finish(span, err) }()

	seq, err = s.customers.History(customerID)
	return seq, invalid(err)
}

// ExpireAbandoned abandons unconfirmed bookings whose hold has run out.
func (s *Service) ExpireAbandoned(ctx context.Context) []domain.Booking {
	_, span := s.start(ctx, "ExpireAbandoned")
	defer span.End()

	now := s.clock.Now()
	abandoned := s.ledger.ExpireUnconfirmed(now)
	span.SetAttributes(attribute.Int("abandoned", len(abandoned)))
	observability.BookingsAbandoned.Add(float64(len(abandoned)))
	for _, b := range abandoned {
		s.applied(b)
	}
	s.retireGauges(now)
	return abandoned
}

// applied records a successful ledger mutation.
func (s *Service) applied(b domain.Booking) {
	observability.SeatsCommitted.WithLabelValues(b.ShowID.String()).Set(float64(s.ledger.CommittedSeats(b.ShowID)))
	if show, err := s.shows.GetShow(b.ShowID); err == nil {
		s.gaugeMu.Lock()
		s.gauged[show.ID] = show.StartsAt
		s.gaugeMu.Unlock()
	}
	s.logger.WithFields(map[string]interface{}{
		"booking_id":  b.ID,
		"show_id":     b.ShowID,
		"customer_id": b.CustomerID,
		"seats":       b.Seats,
		"status":      b.Status,
	}).Info("booking updated")
	if s.events != nil {
		s.events.Enqueue(domain.EventFor(b, s.clock.Now()))
	}
}

// retireGauges drops the seats gauge series of shows that have started.
func (s *Service) retireGauges(now time.Time) {
	s.gaugeMu.Lock()
	defer s.gaugeMu.Unlock()
	for id, startsAt := range s.gauged {
		if startsAt.After(now) {
			continue
		}
		observability.SeatsCommitted.DeleteLabelValues(id.String())
		delete(s.gauged, id)
	}
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "reservation."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// invalid marks a missing reference as an invalid request.
func invalid(err error) error {
	if err != nil && errors.Is(err, domain.ErrNotFound) {
		return errors.Mark(err, domain.ErrInvalidRequest)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrSoldOut):
		return "sold_out"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	}
	return "error"
}
