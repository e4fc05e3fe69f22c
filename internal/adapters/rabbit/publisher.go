package rabbit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/robertarktes/movie-reservations/internal/domain"
)

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Name() string { return "rabbitmq" }

// Deliver publishes ev with its event type as routing key.
func (p *Publisher) Deliver(ctx context.Context, ev domain.BookingEvent) error {
	payload, err := json.Marshal(NewBookingMessage(ev))
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		MessageId:    uuid.New().String(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         payload,
	}
	return p.ch.PublishWithContext(ctx, Exchange, string(ev.Type), false, false, msg)
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
