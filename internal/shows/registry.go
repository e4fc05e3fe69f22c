package shows

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/robertarktes/movie-reservations/internal/domain"
)

// MovieSource resolves the movie a show refers to.
type MovieSource interface {
	GetMovie(id uuid.UUID) (domain.Movie, error)
}

// slot identifies a screening. Start times are compared as instants so the
// same moment in two locations maps to one slot.
type slot struct {
	movieID uuid.UUID
	start   int64
}

func slotOf(movieID uuid.UUID, startsAt time.Time) slot {
	return slot{movieID: movieID, start: startsAt.UnixNano()}
}

type Registry struct {
	movies   MovieSource
	maxSeats int

	mu      sync.RWMutex
	shows   map[uuid.UUID]domain.Show
	bySlot  map[slot]uuid.UUID
	byMovie map[uuid.UUID][]uuid.UUID
}

// NewRegistry returns an empty registry. maxSeats caps show capacity; zero
// disables the cap.
func NewRegistry(movies MovieSource, maxSeats int) *Registry {
	return &Registry{
		movies:   movies,
		maxSeats: maxSeats,
		shows:    make(map[uuid.UUID]domain.Show),
		bySlot:   make(map[slot]uuid.UUID),
		byMovie:  make(map[uuid.UUID][]uuid.UUID),
	}
}

// AddShow registers a show for an existing movie. A second show for the same
// movie and start time is rejected.
func (r *Registry) AddShow(show domain.Show) error {
	if err := show.Validate(r.maxSeats); err != nil {
		return err
	}
	if _, err := r.movies.GetMovie(show.MovieID); err != nil {
		return errors.Wrapf(err, "show %s", show.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shows[show.ID]; ok {
		return errors.Wrapf(domain.ErrDuplicateEntry, "show %s", show.ID)
	}
	key := slotOf(show.MovieID, show.StartsAt)
	if existing, ok := r.bySlot[key]; ok {
		return errors.Wrapf(domain.ErrDuplicateEntry, "movie %s already screens at %s as show %s",
			show.MovieID, show.StartsAt.Format(time.RFC3339), existing)
	}

	r.shows[show.ID] = show
	r.bySlot[key] = show.ID
	r.byMovie[show.MovieID] = append(r.byMovie[show.MovieID], show.ID)
	return nil
}

func (r *Registry) FindShow(movieID uuid.UUID, startsAt time.Time) (domain.Show, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySlot[slotOf(movieID, startsAt)]
	if !ok {
		return domain.Show{}, errors.Wrapf(domain.ErrNotFound, "show for movie %s at %s",
			movieID, startsAt.Format(time.RFC3339))
	}
	return r.shows[id], nil
}

func (r *Registry) GetShow(id uuid.UUID) (domain.Show, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	show, ok := r.shows[id]
	if !ok {
		return domain.Show{}, errors.Wrapf(domain.ErrNotFound, "show %s", id)
	}
	return show, nil
}

// ShowsForMovie lists the movie's shows by start time.
func (r *Registry) ShowsForMovie(movieID uuid.UUID) []domain.Show {
	r.mu.RLock()
	ids := r.byMovie[movieID]
	out := make([]domain.Show, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.shows[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}
