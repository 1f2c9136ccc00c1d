package server

import (
	"database/sql"
	"errors"

	"backend-tripline/internal/auth"
	"backend-tripline/internal/config"
	"backend-tripline/internal/db"
	"backend-tripline/internal/events"
	"backend-tripline/internal/metrics"
	"backend-tripline/internal/social"
	"backend-tripline/internal/stream"
	"backend-tripline/internal/tracking"
	"backend-tripline/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles one persistence backend for every aggregate.
type Stores struct {
	Trips   trip.Store
	Samples tracking.Store
	Posts   social.Store
}

func PostgresStores(q db.Querier) Stores {
	return Stores{
		Trips:   trip.NewPostgresStore(q),
		Samples: tracking.NewPostgresStore(q),
		Posts:   social.NewPostgresStore(q),
	}
}

func SQLiteStores(conn *sql.DB) Stores {
	return Stores{
		Trips:   trip.NewSQLiteStore(conn),
		Samples: tracking.NewSQLiteStore(conn),
		Posts:   social.NewSQLiteStore(conn),
	}
}

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	Log    *zap.Logger
	Stream *stream.Hub
	Events events.Sink

	Trips    *trip.Service
	Tracking *tracking.Service
	Social   *social.Service

	kafka *events.KafkaSink
}

func NewServer(cfg config.Config, log *zap.Logger, stores Stores, redisClient *redis.Client) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		Log:    log,
		Stream: stream.NewHub(redisClient, log.Named("stream")),
	}

	sinks := events.Multi{s.Stream}
	if len(cfg.KafkaBrokers) > 0 {
		s.kafka = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, s.kafka)
	}
	s.Events = sinks

	s.Trips = trip.NewService(stores.Trips, stores.Samples, stores.Posts, s.Events, log.Named("trip"))
	s.Tracking = tracking.NewService(stores.Samples, s.Trips, tracking.PolicyFromConfig(cfg.Admission), s.Events, log.Named("tracking"))
	s.Social = social.NewService(stores.Posts, s.Trips)

	registerRoutes(s)
	return s
}

// Close releases the event sinks. Database handles belong to the caller.
func (s *Server) Close() error {
	var errs []error
	if err := s.Stream.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "store": s.Cfg.StoreDriver})
	})
	s.App.Get("/metrics", metrics.Handler())

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	trip.RegisterRoutes(s.App.Group("/trips"), s.Trips, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/trips/:id/samples"), s.Tracking, jwtMiddleware)
	social.RegisterRoutes(s.App.Group("/social"), s.Social, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Trips)
}
