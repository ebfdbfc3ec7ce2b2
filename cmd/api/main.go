package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopkartlabs/shopkart-backend/api/routes"
	"github.com/shopkartlabs/shopkart-backend/internal/cart"
	"github.com/shopkartlabs/shopkart-backend/internal/catalog"
	checkoutsvc "github.com/shopkartlabs/shopkart-backend/internal/checkout"
	"github.com/shopkartlabs/shopkart-backend/internal/identity"
	"github.com/shopkartlabs/shopkart-backend/internal/orders"
	paymentsvc "github.com/shopkartlabs/shopkart-backend/internal/payments"
	"github.com/shopkartlabs/shopkart-backend/internal/reviews"
	"github.com/shopkartlabs/shopkart-backend/internal/search"
	"github.com/shopkartlabs/shopkart-backend/internal/users"
	identitywebhook "github.com/shopkartlabs/shopkart-backend/internal/webhooks/identity"
	razorpaywebhook "github.com/shopkartlabs/shopkart-backend/internal/webhooks/razorpay"
	"github.com/shopkartlabs/shopkart-backend/internal/wishlist"
	"github.com/shopkartlabs/shopkart-backend/pkg/config"
	"github.com/shopkartlabs/shopkart-backend/pkg/db"
	"github.com/shopkartlabs/shopkart-backend/pkg/idp"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
	"github.com/shopkartlabs/shopkart-backend/pkg/metrics"
	"github.com/shopkartlabs/shopkart-backend/pkg/migrate"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox"
	"github.com/shopkartlabs/shopkart-backend/pkg/razorpay"
	"github.com/shopkartlabs/shopkart-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gatewayClient, err := razorpay.NewClient(cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	idpClient, err := idp.NewClient(cfg.Identity, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gdb), logg)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalog.NewRepository(gdb),
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}

	searchService, err := search.NewService(search.ServiceParams{
		Repo:   search.NewRepository(gdb),
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create search service", err)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:   cart.NewRepository(gdb),
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}

	pricer, err := checkoutsvc.NewPricer(cfg.Pricing)
	if err != nil {
		fatal(logg, "failed to create pricer", err)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		DB:                dbClient,
		Pricer:            pricer,
		Outbox:            outboxService,
		Logger:            logg,
		OrderNumberDigits: cfg.Pricing.OrderNumberRandomDigits,
	})
	if err != nil {
		fatal(logg, "failed to create checkout service", err)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(gdb),
		DB:     dbClient,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create orders service", err)
	}

	paymentsService, err := paymentsvc.NewService(paymentsvc.ServiceParams{
		Repo:    paymentsvc.NewRepository(gdb),
		DB:      dbClient,
		Gateway: gatewayClient,
		Outbox:  outboxService,
		Logger:  logg,
	})
	if err != nil {
		fatal(logg, "failed to create payments service", err)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:   wishlist.NewRepository(gdb),
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create wishlist service", err)
	}

	reviewsService, err := reviews.NewService(reviews.ServiceParams{
		Repo:   reviews.NewRepository(gdb),
		DB:     dbClient,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create reviews service", err)
	}

	usersRepo := users.NewRepository(gdb)
	usersService, err := users.NewService(users.ServiceParams{
		Repo:   usersRepo,
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "failed to create users service", err)
	}

	resolver, err := identity.NewResolver(identity.ResolverParams{
		Provider: idpClient,
		Users:    usersRepo,
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "failed to create identity resolver", err)
	}

	razorpayProcessor, err := razorpaywebhook.NewProcessor(razorpaywebhook.ProcessorParams{
		Gateway:  gatewayClient,
		Payments: paymentsService,
		Replay:   redisClient,
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "failed to create razorpay webhook processor", err)
	}

	identityProcessor, err := identitywebhook.NewProcessor(identitywebhook.ProcessorParams{
		Provider: idpClient,
		Users:    usersRepo,
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "failed to create identity webhook processor", err)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		Metrics:         httpMetrics,
		Resolver:        resolver,
		DB:              dbClient,
		Redis:           redisClient,
		Catalog:         catalogService,
		Search:          searchService,
		Cart:            cartService,
		Checkout:        checkoutService,
		Orders:          ordersService,
		Payments:        paymentsService,
		Wishlist:        wishlistService,
		Reviews:         reviewsService,
		Users:           usersService,
		RazorpayWebhook: razorpayProcessor,
		IdentityWebhook: identityProcessor,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
