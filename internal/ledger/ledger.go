// Package ledger owns the booking lifecycle and each show's seat inventory.
//
// Every show has its own lock. The committed-seat check and the booking
// insert happen under that lock, so concurrent reservations against one show
// never oversell it while reservations for different shows do not contend.
package ledger

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/robertarktes/movie-reservations/internal/clock"
	"github.com/robertarktes/movie-reservations/internal/domain"
)

const DefaultHoldTTL = 15 * time.Minute

type inventory struct {
	mu        sync.Mutex
	capacity  int
	committed int
	bookings  map[uuid.UUID]*domain.Booking
	order     []uuid.UUID
}

// Ledger keeps bookings keyed by show. Customer and show relations are
// stored as ID lists; nothing outside the ledger mutates a booking.
//
// Lock order is inventory.mu before Ledger.mu.
type Ledger struct {
	clock   clock.Clock
	holdTTL time.Duration

	mu          sync.RWMutex
	inventories map[uuid.UUID]*inventory
	bookingShow map[uuid.UUID]uuid.UUID
	byCustomer  map[uuid.UUID][]uuid.UUID
}

type Option func(*Ledger)

// WithHoldTTL sets how long an unconfirmed booking keeps its seats.
func WithHoldTTL(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.holdTTL = d
		}
	}
}

func New(clk clock.Clock, opts ...Option) *Ledger {
	l := &Ledger{
		clock:       clk,
		holdTTL:     DefaultHoldTTL,
		inventories: make(map[uuid.UUID]*inventory),
		bookingShow: make(map[uuid.UUID]uuid.UUID),
		byCustomer:  make(map[uuid.UUID][]uuid.UUID),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reserve creates a REQUESTED booking for seats on show. It fails with
// domain.ErrSoldOut, without side effects, when the show cannot hold them all.
func (l *Ledger) Reserve(show domain.Show, customerID uuid.UUID, seats int) (domain.Booking, error) {
	if seats <= 0 {
		return domain.Booking{}, errors.Wrapf(domain.ErrInvalidRequest, "seat count must be positive, got %d", seats)
	}
	if show.ID == uuid.Nil || customerID == uuid.Nil {
		return domain.Booking{}, errors.Wrap(domain.ErrInvalidRequest, "show and customer are required")
	}

	inv := l.inventory(show)
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if remaining := inv.capacity - inv.committed; seats > remaining {
		return domain.Booking{}, errors.Wrapf(domain.ErrSoldOut, "show %s: requested %d seats, %d remaining", show.ID, seats, remaining)
	}

	b := domain.NewBooking(show.ID, customerID, seats, l.clock.Now(), l.holdTTL)
	inv.bookings[b.ID] = &b
	inv.order = append(inv.order, b.ID)
	inv.committed += seats

	l.mu.Lock()
	l.bookingShow[b.ID] = show.ID
	l.byCustomer[customerID] = append(l.byCustomer[customerID], b.ID)
	l.mu.Unlock()

	return b, nil
}

// MarkPending parks a requested booking while it awaits confirmation.
func (l *Ledger) MarkPending(id uuid.UUID) (domain.Booking, error) {
	b, _, err := l.transition(id, domain.BookingPending)
	return b, err
}

func (l *Ledger) Confirm(id uuid.UUID) (domain.Booking, error) {
	b, _, err := l.transition(id, domain.BookingConfirmed)
	return b, err
}

// Cancel releases the booking's seats. Canceling a canceled booking is a
// no-op and reports changed as false.
func (l *Ledger) Cancel(id uuid.UUID) (b domain.Booking, changed bool, err error) {
	return l.transition(id, domain.BookingCanceled)
}

func (l *Ledger) CheckIn(id uuid.UUID) (domain.Booking, error) {
	b, _, err := l.transition(id, domain.BookingCheckedIn)
	return b, err
}

// transition applies next under the show lock. changed is false only for the
// cancel of an already canceled booking.
func (l *Ledger) transition(id uuid.UUID, next domain.BookingStatus) (domain.Booking, bool, error) {
	inv, err := l.inventoryOf(id)
	if err != nil {
		return domain.Booking{}, false, err
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	b := inv.bookings[id]
	if next == domain.BookingCanceled && b.Status == domain.BookingCanceled {
		return *b, false, nil
	}
	if err := inv.apply(b, next, l.clock.Now()); err != nil {
		return domain.Booking{}, false, err
	}
	return *b, true, nil
}

// apply must be called with inv.mu held.
func (inv *inventory) apply(b *domain.Booking, next domain.BookingStatus, now time.Time) error {
	held := b.Status.HoldsSeats()
	if err := b.Transition(next, now); err != nil {
		return err
	}
	if held && !next.HoldsSeats() {
		inv.committed -= b.Seats
	}
	return nil
}

// ExpireUnconfirmed abandons every REQUESTED or PENDING booking whose hold
// ended at or before now, releasing its seats.
func (l *Ledger) ExpireUnconfirmed(now time.Time) []domain.Booking {
	l.mu.RLock()
	invs := make([]*inventory, 0, len(l.inventories))
	for _, inv := range l.inventories {
		invs = append(invs, inv)
	}
	l.mu.RUnlock()

	var abandoned []domain.Booking
	for _, inv := range invs {
		inv.mu.Lock()
		for _, id := range inv.order {
			b := inv.bookings[id]
			if !b.Expired(now) {
				continue
			}
			if err := inv.apply(b, domain.BookingAbandoned, now); err == nil {
				abandoned = append(abandoned, *b)
			}
		}
		inv.mu.Unlock()
	}
	return abandoned
}

func (l *Ledger) Booking(id uuid.UUID) (domain.Booking, error) {
	inv, err := l.inventoryOf(id)
	if err != nil {
		return domain.Booking{}, err
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return *inv.bookings[id], nil
}

// ShowBookings returns the show's bookings in creation order.
func (l *Ledger) ShowBookings(showID uuid.UUID) []domain.Booking {
	l.mu.RLock()
	inv, ok := l.inventories[showID]
	l.mu.RUnlock()
	if !ok {
		return nil
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]domain.Booking, 0, len(inv.order))
	for _, id := range inv.order {
		out = append(out, *inv.bookings[id])
	}
	return out
}

// CustomerBookingIDs returns the customer's booking ids in creation order.
func (l *Ledger) CustomerBookingIDs(customerID uuid.UUID) []uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.byCustomer[customerID]
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

// CommittedSeats is the number of seats held by non-canceled, non-abandoned
// bookings of the show.
func (l *Ledger) CommittedSeats(showID uuid.UUID) int {
	l.mu.RLock()
	inv, ok := l.inventories[showID]
	l.mu.RUnlock()
	if !ok {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.committed
}

func (l *Ledger) inventory(show domain.Show) *inventory {
	l.mu.RLock()
	inv, ok := l.inventories[show.ID]
	l.mu.RUnlock()
	if ok {
		return inv
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if inv, ok := l.inventories[show.ID]; ok {
		return inv
	}
	inv = &inventory{
		capacity: show.TotalSeats,
		bookings: make(map[uuid.UUID]*domain.Booking),
	}
	l.inventories[show.ID] = inv
	return inv
}

func (l *Ledger) inventoryOf(bookingID uuid.UUID) (*inventory, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	showID, ok := l.bookingShow[bookingID]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "booking %s", bookingID)
	}
	return l.inventories[showID], nil
}
