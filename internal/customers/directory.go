package customers

import (
	"iter"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/robertarktes/movie-reservations/internal/domain"
)

// BookingSource resolves a customer's bookings. The ledger implements it.
type BookingSource interface {
	CustomerBookingIDs(customerID uuid.UUID) []uuid.UUID
	Booking(id uuid.UUID) (domain.Booking, error)
}

type Directory struct {
	bookings BookingSource

	mu        sync.RWMutex
	customers map[uuid.UUID]domain.Customer
}

func NewDirectory(bookings BookingSource) *Directory {
	return &Directory{
		bookings:  bookings,
		customers: make(map[uuid.UUID]domain.Customer),
	}
}

func (d *Directory) AddCustomer(customer domain.Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.customers[customer.ID]; ok {
		return errors.Wrapf(domain.ErrDuplicateEntry, "customer %s", customer.ID)
	}
	d.customers[customer.ID] = customer
	return nil
}

func (d *Directory) GetCustomer(id uuid.UUID) (domain.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	customer, ok := d.customers[id]
	if !ok {
		return domain.Customer{}, errors.Wrapf(domain.ErrNotFound, "customer %s", id)
	}
	return customer, nil
}

// History yields the customer's bookings in creation order. Each range over
// the sequence takes a fresh snapshot of the booking ids and reads every
// booking's current state as it goes.
func (d *Directory) History(customerID uuid.UUID) (iter.Seq[domain.Booking], error) {
	if _, err := d.GetCustomer(customerID); err != nil {
		return nil, err
	}
	return func(yield func(domain.Booking) bool) {
		for _, id := range d.bookings.CustomerBookingIDs(customerID) {
			b, err := d.bookings.Booking(id)
			if err != nil {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}, nil
}
