// Package app assembles the booking engine's backends from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkit-backend/internal/config"
	"parkit-backend/internal/events"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/payment"
	"parkit-backend/internal/repository/memory"
	"parkit-backend/internal/repository/postgres"
	"parkit-backend/internal/repository/redislock"
	"parkit-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// App holds the wired services and everything that must be closed on exit.
type App struct {
	Booking   service.BookingService
	Payments  service.PaymentService
	Locations service.LocationService

	closers []func() error
}

// New connects the configured storage, lock, gateway and event backends.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}
	repos, err := a.openRepositories(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher := a.openPublisher(cfg)
	opts := service.Options{
		Currency:           cfg.Gateway.Currency,
		GatewayTimeout:     cfg.GatewayTimeout(),
		LockTimeout:        cfg.LockTimeout(),
		ReservationTimeout: cfg.ReservationTimeout(),
	}

	a.Booking = service.NewBookingService(repos, publisher, opts)
	a.Payments = service.NewPaymentService(repos, newGateway(cfg), publisher, opts)
	a.Locations = service.NewLocationService(repos.Ledger)
	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openRepositories(ctx context.Context, cfg *config.Config) (service.Repositories, error) {
	var repos service.Repositories

	switch cfg.Storage.Type {
	case "memory":
		logger.Warn("Using in-memory storage; state is lost on restart")
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.Storage.SeedFile); err != nil {
				return repos, err
			}
			logger.Info("Memory store seeded", "file", cfg.Storage.SeedFile)
		}
		repos = service.Repositories{
			Users:     store.UserRepository,
			Locations: store.LocationRepository,
			Ledger:    store.CapacityLedger,
			Orders:    store.OrderRepository,
			Payments:  store.PaymentRepository,
			Intents:   store.IntentRepository,
			Locker:    store.VehicleLocker,
		}
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return repos, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return repos, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("Database connection established")

		store := postgres.NewStore(db)
		repos = service.Repositories{
			Users:     store.UserRepository,
			Locations: store.LocationRepository,
			Ledger:    store.CapacityLedger,
			Orders:    store.OrderRepository,
			Payments:  store.PaymentRepository,
			Intents:   store.IntentRepository,
		}
	}

	switch cfg.Lock.Type {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return repos, fmt.Errorf("ping redis: %w", err)
		}
		repos.Locker = redislock.New(rdb, cfg.LockTTL(), 0)
		logger.Info("Using redis vehicle lock", "addr", cfg.Redis.Addr)
	case "postgres":
		// held advisory locks pin connections, so they get a pool of their own
		lockDB, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return repos, fmt.Errorf("open lock database: %w", err)
		}
		a.closers = append(a.closers, lockDB.Close)
		lockDB.SetMaxOpenConns(cfg.Lock.MaxConns)
		repos.Locker = postgres.NewAdvisoryLocker(lockDB)
		logger.Info("Using postgres advisory vehicle lock", "max_conns", cfg.Lock.MaxConns)
	default:
		if repos.Locker == nil {
			repos.Locker = memory.NewVehicleLocker()
		}
		logger.Info("Using in-process vehicle lock")
	}
	return repos, nil
}

// openPublisher falls back to a no-op publisher when the broker is not
// configured or unreachable; events are best effort.
func (a *App) openPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQ.URL == "" {
		return events.NewNoop()
	}
	pub, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, order events disabled", "error", err)
		return events.NewNoop()
	}
	a.closers = append(a.closers, pub.Close)
	logger.Info("Publishing order events", "exchange", cfg.RabbitMQ.Exchange)
	return pub
}

func newGateway(cfg *config.Config) payment.Gateway {
	if cfg.Gateway.Type == "mock" {
		return payment.NewMockGateway(cfg.Gateway.KeySecret)
	}
	return payment.NewRazorpayClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.GatewayTimeout())
}
