// Package outbox decouples booking mutations from event delivery. The
// reservation service enqueues events without blocking; a single dispatcher
// goroutine hands them to every sink with bounded retries.
package outbox

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/observability"
)

// Sink receives booking events, e.g. a message broker or an audit store.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev domain.BookingEvent) error
}

type Publisher struct {
	queue      chan domain.BookingEvent
	sinks      []Sink
	logger     observability.Logger
	maxRetries int
	backoff    time.Duration
}

type Option func(*Publisher)

// WithRetry sets the attempts per sink and the base of the exponential
// backoff between them.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(p *Publisher) {
		if maxRetries > 0 {
			p.maxRetries = maxRetries
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

func NewPublisher(logger observability.Logger, size int, sinks []Sink, opts ...Option) *Publisher {
	p := &Publisher{
		queue:      make(chan domain.BookingEvent, size),
		sinks:      sinks,
		logger:     logger,
		maxRetries: 3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enqueue never blocks. It reports false when the event was dropped.
func (p *Publisher) Enqueue(ev domain.BookingEvent) bool {
	select {
	case p.queue <- ev:
		return true
	default:
		observability.OutboxDropped.Inc()
		p.logger.WithField("booking_id", ev.Booking.ID).Warn("outbox full, dropping booking event")
		return false
	}
}

// Run delivers events until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("outbox publisher started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopped")
			return nil
		case ev := <-p.queue:
			for _, sink := range p.sinks {
				if err := p.deliverWithRetry(ctx, sink, ev); err != nil {
					p.logger.WithFields(map[string]interface{}{
						"sink":       sink.Name(),
						"event_type": ev.Type,
						"booking_id": ev.Booking.ID,
					}).WithError(err).Error("failed to deliver booking event")
				}
			}
		}
	}
}

func (p *Publisher) deliverWithRetry(ctx context.Context, sink Sink, ev domain.BookingEvent) error {
	var err error
	for i := 0; i < p.maxRetries; i++ {
		if i > 0 {
			observability.PublishRetries.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<(i-1)) * p.backoff):
			}
		}
		if err = sink.Deliver(ctx, ev); err == nil {
			return nil
		}
	}
	return errors.Wrapf(err, "%s: failed after %d attempts", sink.Name(), p.maxRetries)
}
