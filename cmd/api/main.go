package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tourdesk/internal/api/http"
	"github.com/spec-kit/tourdesk/internal/api/http/handlers"
	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/config"
	"github.com/spec-kit/tourdesk/internal/events"
	"github.com/spec-kit/tourdesk/internal/observability"
	"github.com/spec-kit/tourdesk/internal/persistence"
	"github.com/spec-kit/tourdesk/internal/ratelimit"
	"github.com/spec-kit/tourdesk/internal/repository"
	"github.com/spec-kit/tourdesk/internal/repository/memory"
	"github.com/spec-kit/tourdesk/internal/service"
	"github.com/spec-kit/tourdesk/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("tourdesk: %v", err)
	}
}

// run owns every resource it opens so deferred cleanup happens on all exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pingers := map[string]handlers.Pinger{}

	var store repository.Store
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		store = memory.New()
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
		pingers["postgres"] = pg
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if redis.Client != nil {
		pingers["redis"] = redis
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("bcrypt cost: %w", err)
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	policy := auth.NewPolicyEngine(nil)

	dispatcher := events.NewInMemoryDispatcher()
	var relay events.EventHandler
	if cfg.Notification.AMQPURL != "" {
		amqpRelay, err := events.DialAMQPRelay(cfg.Notification.AMQPURL, cfg.Notification.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer amqpRelay.Close()
		relay = amqpRelay.Handle
	}
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, relay))

	deps := service.Dependencies{
		Store:      store,
		Policy:     policy,
		Hasher:     hasher,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	if cfg.LoginLimit.Enabled && redis.Client != nil {
		deps.Throttle = ratelimit.NewLoginLimiter(redis.Client, cfg.LoginLimit.MaxAttempts, cfg.LoginLimit.LoginWindow(), logger)
	}

	authService := service.NewAuthService(deps)
	userService := service.NewUserService(deps)
	staffService := service.NewStaffService(deps)
	customerService := service.NewCustomerService(deps)
	tripService := service.NewTripService(deps)

	if cfg.Bootstrap.AdminEmail != "" {
		created, err := userService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName)
		if err != nil {
			return fmt.Errorf("bootstrap administrator: %w", err)
		}
		if created {
			logger.Info("bootstrap administrator created", zap.String("email", cfg.Bootstrap.AdminEmail))
		}
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pingers, metrics),
		Auth:           handlers.NewAuthHandler(authService, userService),
		Users:          handlers.NewUsersHandler(userService),
		Staff:          handlers.NewStaffHandler(staffService),
		Customers:      handlers.NewCustomersHandler(customerService),
		Trips:          handlers.NewTripsHandler(tripService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Policy:         policy,
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.App.Addr())
	}()
	logger.Info("http server started", zap.String("addr", cfg.App.Addr()))

	if err := waitForShutdown(logger, listenErr); err != nil {
		return fmt.Errorf("fiber listen: %w", err)
	}
	return app.Shutdown()
}

// waitForShutdown blocks until a termination signal arrives or the listener
// stops on its own, returning the listener's error in the latter case.
func waitForShutdown(logger *zap.Logger, listenErr <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		return nil
	case err := <-listenErr:
		return err
	}
}
