package catalog

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/robertarktes/movie-reservations/internal/domain"
)

// Catalog stores movies by identity. Movies are immutable once added.
type Catalog struct {
	mu     sync.RWMutex
	movies map[uuid.UUID]domain.Movie
	order  []uuid.UUID
}

func New() *Catalog {
	return &Catalog{movies: make(map[uuid.UUID]domain.Movie)}
}

func (c *Catalog) AddMovie(movie domain.Movie) error {
	if err := movie.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.movies[movie.ID]; ok {
		return errors.Wrapf(domain.ErrDuplicateEntry, "movie %s", movie.ID)
	}
	c.movies[movie.ID] = movie
	c.order = append(c.order, movie.ID)
	return nil
}

func (c *Catalog) GetMovie(id uuid.UUID) (domain.Movie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	movie, ok := c.movies[id]
	if !ok {
		return domain.Movie{}, errors.Wrapf(domain.ErrNotFound, "movie %s", id)
	}
	return movie, nil
}

// Movies returns every movie in insertion order.
func (c *Catalog) Movies() []domain.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Movie, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.movies[id])
	}
	return out
}
