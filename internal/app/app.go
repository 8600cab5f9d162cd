package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloudshop/checkout-service/internal/checkout"
	"github.com/cloudshop/checkout-service/internal/client"
	"github.com/cloudshop/checkout-service/internal/domain/payment"
	"github.com/cloudshop/checkout-service/internal/domain/shipping"
	"github.com/cloudshop/checkout-service/internal/events"
	"github.com/cloudshop/checkout-service/internal/handler"
	"github.com/cloudshop/checkout-service/internal/lease"
	"github.com/cloudshop/checkout-service/internal/postgres"
	"github.com/cloudshop/checkout-service/pkg/health"
	"github.com/cloudshop/checkout-service/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the lease reaper,
// and handles graceful shutdown. It is the single wiring point for the
// application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	shippingRate, err := decimal.NewFromString(cfg.ShippingRate)
	if err != nil {
		return errors.Wrap(err, "parse shipping rate")
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Lease store: shared Redis when configured, in-process otherwise.
	var leaseStore lease.Store = lease.NewMemoryStore()
	if cfg.Lease.TTL <= 0 {
		leaseStore = lease.Noop{}
	} else if cfg.Lease.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Lease.RedisAddr})
		defer func() { _ = rdb.Close() }()
		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		leaseStore = lease.NewRedisStore(rdb)
	}
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Order event publishing.
	var publisher events.Publisher = events.Noop{}
	if len(cfg.Events.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		defer func() { _ = kp.Close() }()
		publisher = kp
	}

	// Collaborator clients and the orchestrator.
	carts := client.NewCartClient(cfg.CartURL, cfg.ClientTimeout)
	stock := client.NewInventoryClient(cfg.InventoryURL, cfg.ClientTimeout)
	orderRepo := postgres.NewOrderRepository(pool)

	orch := checkout.New(
		carts,
		stock,
		orderRepo,
		payment.Stub{},
		shipping.FlatRate{Rate: shippingRate},
		publisher,
		leaseStore,
		checkout.Config{
			StrictCompensation: cfg.StrictCompensation,
			LeaseTTL:           cfg.Lease.TTL,
		},
	)

	// Mux: health endpoints + checkout routes on one server.
	mux := chi.NewRouter()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(orch).Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "checkout-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type"},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	if cfg.Lease.TTL > 0 {
		reaper := lease.NewReaper(leaseStore, orch)
		g.Go(func() error {
			return reaper.Run(ctx, cfg.Lease.SweepInterval)
		})
	}
	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}
