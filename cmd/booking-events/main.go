// Command booking-events tails booking events from RabbitMQ and logs them.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/robertarktes/movie-reservations/internal/adapters/rabbit"
	"github.com/robertarktes/movie-reservations/internal/config"
	"github.com/robertarktes/movie-reservations/internal/observability"
)

func main() {
	queue := flag.String("queue", "booking-events.tail", "queue to declare and consume")
	binding := flag.String("binding", "booking.*", "routing key pattern to bind")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required")
	}
	logger := observability.NewLogger(cfg.LogLevel)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, *queue, *binding)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}
	logger.WithField("queue", *queue).Info("tailing booking events")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown booking event tail")
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			msg, err := rabbit.DecodeBookingMessage(d.Body)
			if err != nil {
				logger.WithError(err).Warn("discarding malformed booking event")
				d.Nack(false, false)
				continue
			}
			logger.WithFields(map[string]interface{}{
				"event_type":  msg.EventType,
				"booking_id":  msg.BookingID,
				"show_id":     msg.ShowID,
				"customer_id": msg.CustomerID,
				"seats":       msg.Seats,
				"status":      msg.Status,
			}).Info("booking event")
			d.Ack(false)
		}
	}
}
