package expiry

import (
	"context"
	"time"

	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/observability"
)

// Expirer abandons bookings whose hold ran out.
type Expirer interface {
	ExpireAbandoned(ctx context.Context) []domain.Booking
}

type Worker struct {
	expirer Expirer
	logger  observability.Logger
}

func NewWorker(expirer Expirer, logger observability.Logger) *Worker {
	return &Worker{expirer: expirer, logger: logger}
}

// Run sweeps every interval until ctx is canceled.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			abandoned := w.expirer.ExpireAbandoned(ctx)
			if len(abandoned) > 0 {
				w.logger.WithField("count", len(abandoned)).Info("abandoned expired bookings")
			}
		}
	}
}
