package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/solecart/api/controllers"
	"github.com/angelmondragon/solecart/api/routes"
	"github.com/angelmondragon/solecart/internal/cart"
	"github.com/angelmondragon/solecart/internal/checkout"
	"github.com/angelmondragon/solecart/internal/cron"
	"github.com/angelmondragon/solecart/internal/offline"
	"github.com/angelmondragon/solecart/internal/orders"
	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/internal/session"
	"github.com/angelmondragon/solecart/pkg/config"
	"github.com/angelmondragon/solecart/pkg/credentials"
	"github.com/angelmondragon/solecart/pkg/db"
	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/angelmondragon/solecart/pkg/metrics"
	"github.com/angelmondragon/solecart/pkg/migrate"
	"github.com/angelmondragon/solecart/pkg/pubsub"
	"github.com/angelmondragon/solecart/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	var notifier orders.Notifier
	var pubsubClient *pubsub.Client
	if cfg.PubSub.NotificationsEnabled() {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		notifier, err = orders.NewPubSubNotifier(pubsubClient, pubsubClient.OrderStatusTopic())
		if err != nil {
			logg.Error(ctx, "failed to create order notifier", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "order status notifications disabled: no topic configured")
	}

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)
	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	cartClient, err := remote.New("cart", cfg.Remote, remote.WithRecorder(cartMetrics))
	requireResource(ctx, logg, "cart client", err)
	productClient, err := remote.New("products", cfg.Remote, remote.WithRecorder(cartMetrics))
	requireResource(ctx, logg, "product client", err)
	orderClient, err := remote.New("orders", cfg.Remote, remote.WithRecorder(cartMetrics))
	requireResource(ctx, logg, "order client", err)

	cartService, err := newCartService(cfg, logg, cartClient, dbClient, redisClient, cartMetrics)
	requireResource(ctx, logg, "cart service", err)

	creds := credentials.Request{}
	handlers, err := cart.NewHandlers(cart.HandlerParams{
		Carts:       cartService,
		Products:    remote.NewProductAPI(productClient),
		Credentials: creds,
		Logger:      logg,
		Metrics:     cartMetrics,
	})
	requireResource(ctx, logg, "cart handlers", err)

	checkoutService, err := checkout.NewService(logg, cfg.Checkout.FallbackName)
	requireResource(ctx, logg, "checkout service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		API:         remote.NewOrderAPI(orderClient),
		Notifier:    notifier,
		Credentials: creds,
		Logger:      logg,
		Metrics:     cartMetrics,
	})
	requireResource(ctx, logg, "orders service", err)

	sessions := session.NewRegistry(cartMetrics)
	sweeper, err := newSessionSweeper(cfg, logg, sessions, cronMetrics)
	requireResource(ctx, logg, "session sweeper", err)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "session sweeper stopped", err)
		}
	}()

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Breakers:    []controllers.Breaker{cartClient, productClient, orderClient},
		Sessions:    sessions,
		Cart:        handlers,
		Checkout:    checkoutService,
		Orders:      ordersService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"offline": cfg.Offline.Enabled,
	})
	logg.Info(ctx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if pubsubClient != nil {
		closeErr = multierr.Append(closeErr, pubsubClient.Close())
	}
	if closeErr != nil {
		logg.Error(shutdownCtx, "error during shutdown", closeErr)
		exitCode = 1
	}
	logg.Info(shutdownCtx, "api server stopped")
	os.Exit(exitCode)
}

// newCartService wraps the cart API in the offline queue unless it is disabled.
func newCartService(
	cfg *config.Config,
	logg *logger.Logger,
	client *remote.Client,
	dbClient *db.Client,
	redisClient *redis.Client,
	rec offline.QueueRecorder,
) (cart.CartService, error) {
	api := remote.NewCartAPI(client)
	if !cfg.Offline.Enabled {
		return cart.NewDirectService(api)
	}
	return offline.NewService(offline.ServiceParams{
		API:         api,
		Queue:       offline.NewRepository(dbClient.DB()),
		Cache:       redisClient,
		CacheTTL:    cfg.Redis.CartTTL,
		Logger:      logg,
		Metrics:     rec,
		MaxAttempts: cfg.Offline.MaxAttempts,
		FlushBatch:  cfg.Offline.FlushBatch,
	})
}

// newSessionSweeper prunes idle sessions in-process; sessions never leave
// this instance, so a local lock is enough.
func newSessionSweeper(cfg *config.Config, logg *logger.Logger, sessions *session.Registry, rec cron.JobRecorder) (*cron.Service, error) {
	job, err := cron.NewSessionPruneJob(cron.SessionPruneJobParams{
		Logger:   logg,
		Sessions: sessions,
		IdleTTL:  cfg.Session.IdleTTL,
	})
	if err != nil {
		return nil, err
	}
	registry, err := cron.NewRegistry(job)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &cron.LocalLock{},
		Metrics:  rec,
		Interval: cfg.Session.SweepInterval,
	})
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to create "+resource, err)
	os.Exit(1)
}
