package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/robertarktes/movie-reservations/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/movie-reservations/internal/adapters/mongo"
	"github.com/robertarktes/movie-reservations/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/movie-reservations/internal/adapters/redis"
	"github.com/robertarktes/movie-reservations/internal/clock"
	"github.com/robertarktes/movie-reservations/internal/config"
	"github.com/robertarktes/movie-reservations/internal/expiry"
	httphandler "github.com/robertarktes/movie-reservations/internal/http"
	"github.com/robertarktes/movie-reservations/internal/idempotency"
	"github.com/robertarktes/movie-reservations/internal/observability"
	"github.com/robertarktes/movie-reservations/internal/outbox"
	"github.com/robertarktes/movie-reservations/internal/rateLimit"
	"github.com/robertarktes/movie-reservations/internal/reservation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.SetupOTel(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger(cfg.LogLevel)

	var sinks []outbox.Sink
	var movieStore *mongoadapter.CatalogRepository
	var idempStore idempotency.Store = idempotency.NewMemoryStore()
	routerOpts := httphandler.RouterOptions{PerMinute: cfg.RateLimitPerMinute}

	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		mongoDB := mongoClient.Database("movie_reservations")
		movieStore = mongoadapter.NewCatalogRepository(mongoDB, logger)
		sinks = append(sinks, mongoadapter.NewAuditLogger(mongoDB, logger))
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()
		journal := crdb.NewJournal(pool)
		if err := journal.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to prepare journal: %v", err)
		}
		sinks = append(sinks, journal)
	}

	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		idempStore = redisadapter.NewIdempotency(redisClient)
		routerOpts.RateLimiter = rateLimit.NewRateLimiter(redisadapter.NewCounter(redisClient), logger)
	}
	routerOpts.Idempotency = idempotency.NewIdempotency(idempStore, cfg.IdempotencyTTL)

	if cfg.RabbitURL != "" {
		rabbitConn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rabbitConn.Close()
		rabbitPub, err := rabbit.NewPublisher(rabbitConn)
		if err != nil {
			log.Fatalf("failed to create publisher: %v", err)
		}
		sinks = append(sinks, rabbitPub)
	}

	events := outbox.NewPublisher(logger, 1024, sinks)
	svc := reservation.New(clock.NewSystem(), logger,
		reservation.WithHoldTTL(cfg.HoldTTL),
		reservation.WithMaxShowSeats(cfg.MaxShowSeats),
		reservation.WithEvents(events),
	)

	var handlers *httphandler.Handlers
	if movieStore != nil {
		seedCatalog(ctx, svc, movieStore, logger)
		handlers = httphandler.NewHandlers(svc, movieStore, logger)
	} else {
		handlers = httphandler.NewHandlers(svc, nil, logger)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httphandler.SetupRouter(handlers, logger, routerOpts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown Server ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return events.Run(gctx)
	})
	g.Go(func() error {
		return expiry.NewWorker(svc, logger).Run(gctx, cfg.ExpiryInterval)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("Server exiting")
}

func seedCatalog(ctx context.Context, svc *reservation.Service, store *mongoadapter.CatalogRepository, logger observability.Logger) {
	movies, err := store.LoadMovies(ctx)
	if err != nil {
		logger.WithError(err).Warn("catalog seed unavailable")
		return
	}
	for _, m := range movies {
		if err := svc.AddMovie(ctx, m); err != nil {
			logger.WithField("movie_id", m.ID).WithError(err).Warn("skipping seeded movie")
		}
	}
	logger.WithField("count", len(movies)).Info("catalog seeded")
}
