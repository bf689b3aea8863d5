package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/oakline/oakline/internal"
	"github.com/oakline/oakline/internal/auth"
	"github.com/oakline/oakline/internal/billing"
	"github.com/oakline/oakline/internal/events"
	"github.com/oakline/oakline/internal/handler/api"
	"github.com/oakline/oakline/internal/handler/webhook"
	"github.com/oakline/oakline/internal/middleware"
	"github.com/oakline/oakline/internal/repository"
	"github.com/oakline/oakline/internal/routes"
	"github.com/oakline/oakline/internal/service"
	"github.com/oakline/oakline/internal/shipping"
	"github.com/oakline/oakline/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// database/sql connection is only used to run migrations.
	logger.Info().Msg("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info().Msg("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()

	pool, err := repository.NewPool(ctx, cfg.DatabaseUrl, repository.DefaultDBConfig())
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	orderRepo := repository.NewOrderRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	customerRepo := repository.NewCustomerRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	billingProvider, err := billing.NewStripeProvider(billing.StripeConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer publisher.Close()

	telemetry.InitBusinessMetrics("oakline")
	metrics := middleware.NewMetrics("oakline")

	shippingCalc := shipping.NewThresholdCalculator(
		cfg.Checkout.FreeShippingThreshold,
		cfg.Checkout.ShippingFlatRate,
	)

	customerResolver := service.NewCustomerService(customerRepo, billingProvider)
	orderService := service.NewOrderService(orderRepo, publisher)
	checkoutService := service.NewCheckoutService(
		orderRepo,
		productRepo,
		customerResolver,
		billingProvider,
		shippingCalc,
		publisher,
		service.CheckoutConfig{Currency: cfg.Checkout.Currency},
	)

	verifier := auth.NewStoreVerifier(userRepo)

	r := routes.New(routes.Deps{
		CheckoutHandler: api.NewCheckoutHandler(checkoutService),
		OrdersHandler:   api.NewOrdersHandler(orderService),
		StripeHandler:   webhook.NewStripeHandler(billingProvider, orderService, cfg.Stripe.WebhookSecret),
		Verifier:        verifier,
		Metrics:         metrics,
		Logger:          logger,
		AllowedOrigins:  []string{"*"},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

type closablePublisher interface {
	events.Publisher
	Close()
}

func newPublisher(cfg *internal.Config, logger zerolog.Logger) (closablePublisher, error) {
	if cfg.Nats.URL == "" {
		logger.Warn().Msg("NATS_URL not set, order events disabled")
		return events.NoopPublisher{}, nil
	}
	return events.NewNatsPublisher(cfg.Nats.URL, cfg.Nats.SubjectPrefix, logger)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
