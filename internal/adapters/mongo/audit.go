package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/robertarktes/movie-reservations/internal/domain"
	"github.com/robertarktes/movie-reservations/internal/observability"
)

// AuditLogger keeps an append-only trail of booking events.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("booking_audit"),
		logger: logger,
	}
}

type AuditLog struct {
	ID         string    `bson:"_id"`
	Action     string    `bson:"action"`
	BookingID  string    `bson:"booking_id"`
	CustomerID string    `bson:"customer_id"`
	Timestamp  time.Time `bson:"timestamp"`
	Data       bson.M    `bson:"data"`
}

func (a *AuditLogger) Name() string { return "mongo-audit" }

// Deliver records ev once. The entry id is derived from the event, so a retry
// after an unacknowledged insert hits a duplicate key and counts as done.
func (a *AuditLogger) Deliver(ctx context.Context, ev domain.BookingEvent) error {
	b := ev.Booking
	log := AuditLog{
		ID:         entryID(ev),
		Action:     string(ev.Type),
		BookingID:  b.ID.String(),
		CustomerID: b.CustomerID.String(),
		Timestamp:  ev.OccurredAt,
		Data: bson.M{
			"show_id": b.ShowID.String(),
			"seats":   b.Seats,
			"status":  string(b.Status),
		},
	}
	_, err := a.coll.InsertOne(ctx, log)
	if mongo.IsDuplicateKeyError(err) {
		a.logger.WithField("audit_id", log.ID).Debug("audit entry already recorded")
		return nil
	}
	return err
}

func entryID(ev domain.BookingEvent) string {
	return fmt.Sprintf("%s:%s:%d", ev.Booking.ID, ev.Type, ev.OccurredAt.UnixNano())
}
