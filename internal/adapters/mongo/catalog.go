package mongo

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/observability"
)

// CatalogRepository is the seed source for movies loaded at startup.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("movies"),
		logger: logger,
	}
}

type MovieDoc struct {
	ID              string `bson:"_id"`
	Title           string `bson:"title"`
	Description     string `bson:"description"`
	DurationMinutes int    `bson:"duration_minutes"`
}

func (c *CatalogRepository) SaveMovie(ctx context.Context, m domain.Movie) error {
	doc := MovieDoc{
		ID:              m.ID.String(),
		Title:           m.Title,
		Description:     m.Description,
		DurationMinutes: m.Minutes(),
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		c.logger.WithError(err).Error("failed to save movie")
		return err
	}
	return nil
}

// LoadMovies returns every stored movie. Documents with an unparsable id are
// skipped.
func (c *CatalogRepository) LoadMovies(ctx context.Context) ([]domain.Movie, error) {
	cur, err := c.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []MovieDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	movies := make([]domain.Movie, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			c.logger.WithField("id", d.ID).Warn("skipping movie with invalid id")
			continue
		}
		m := domain.NewMovie(d.Title, d.Description, d.DurationMinutes)
		m.ID = id
		movies = append(movies, m)
	}
	return movies, nil
}
