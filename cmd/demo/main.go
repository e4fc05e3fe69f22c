// Command demo runs a single reservation against an in-memory schedule and
// logs the outcome.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/robertarktes/movie-reservations/internal/clock"
	"github.com/robertarktes/movie-reservations/internal/config"
	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/observability"
	"github.com/robertarktes/movie-reservations/internal/reservation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := observability.NewLogger(cfg.LogLevel)

	if err := run(context.Background(), logger, clock.NewSystem()); err != nil {
		logger.WithError(err).Error("Booking failed.")
		os.Exit(1)
	}
}

func run(ctx context.Context, logger observability.Logger, clk clock.Clock) error {
	svc := reservation.New(clk, logger)
	startsAt := clk.Now().Truncate(time.Minute).Add(2 * time.Hour)

	movie1 := domain.NewMovie("Movie 1", "Description 1", 120)
	movie2 := domain.NewMovie("Movie 2", "Description 2", 110)
	for _, m := range []domain.Movie{movie1, movie2} {
		if err := svc.AddMovie(ctx, m); err != nil {
			return err
		}
	}

	if err := svc.AddShow(ctx, domain.NewShow(movie1.ID, startsAt, 100)); err != nil {
		return err
	}
	// A second screening of the same movie at the same time is refused, so it
	// moves to the late slot.
	late := domain.NewShow(movie1.ID, startsAt, 80)
	if err := svc.AddShow(ctx, late); errors.Is(err, domain.ErrDuplicateEntry) {
		logger.WithError(err).Warn("show slot taken, rescheduling")
		late.StartsAt = startsAt.Add(3 * time.Hour)
		if err := svc.AddShow(ctx, late); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	if err := svc.AddShow(ctx, domain.NewShow(movie2.ID, startsAt, 120)); err != nil {
		return err
	}

	customer1 := domain.NewCustomer("Customer 1")
	customer2 := domain.NewCustomer("Customer 2")
	for _, c := range []domain.Customer{customer1, customer2} {
		if err := svc.RegisterCustomer(ctx, c); err != nil {
			return err
		}
	}

	booking, err := svc.ReserveByMovie(ctx, movie1.ID, startsAt, customer1.ID, 2)
	if err != nil {
		return err
	}
	if _, err := svc.Confirm(ctx, booking.ID); err != nil {
		return err
	}
	logger.WithField("booking_id", booking.ID).Info("Booking confirmed for " + customer1.Name)
	return nil
}
