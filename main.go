package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cartapp "github.com/sofkify/shop/internal/application/cart"
	orderapp "github.com/sofkify/shop/internal/application/order"
	productapp "github.com/sofkify/shop/internal/application/product"
	userapp "github.com/sofkify/shop/internal/application/user"
	"github.com/sofkify/shop/internal/infrastructure/adapter"
	"github.com/sofkify/shop/internal/infrastructure/id"
	"github.com/sofkify/shop/internal/infrastructure/memory"
	infraobservability "github.com/sofkify/shop/internal/infrastructure/observability"
	"github.com/sofkify/shop/internal/infrastructure/observability/oteltrace"
	"github.com/sofkify/shop/internal/infrastructure/observability/prometrics"
	"github.com/sofkify/shop/internal/infrastructure/observability/zaplogger"
	"github.com/sofkify/shop/internal/infrastructure/outbox"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/pkg/config"
	httppresentation "github.com/sofkify/shop/internal/presentation/http"
)

func main() {
	cfg := config.Load()

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)

	registry := prometrics.New("", "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: registry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
		observability.MExternalRequests: registry.Counter(
			string(observability.MExternalRequests),
			"Total number of calls to collaborating services.",
			"peer", "endpoint", "outcome",
		),
		observability.MEventsConsumed: registry.Counter(
			string(observability.MEventsConsumed),
			"Total number of events handled by subscribers.",
			"event", "outcome",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of calls to collaborating services in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}

	tel := infraobservability.New(
		oteltrace.New(cfg.ServiceName),
		baseLogger,
		counters,
		histograms,
	)
	logger := tel.Logger()

	// Repositories.
	cartRepo := memory.NewCartRepository()
	orderRepo := memory.NewOrderRepository()
	productRepo := memory.NewProductRepository()
	userRepo := memory.NewUserRepository()
	processedOrders := memory.NewProcessedOrderStore()
	idGenerator := id.NewUUIDGenerator()

	// Event bus standing in for the deployment's at-least-once queue.
	bus := outbox.NewBus(logger, tel.Metrics(), outbox.Options{
		QueueSize:   cfg.BusQueueSize,
		Concurrency: cfg.BusConcurrency,
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	// Application services.
	cartService := cartapp.NewService(cartRepo, logger)
	orderService := orderapp.NewService(orderRepo, logger)
	productService := productapp.NewService(productRepo, idGenerator, logger)
	userService := userapp.NewService(userRepo, idGenerator, logger)

	// Cross-context adapters.
	cartReader := adapter.NewCartReader(cartService)
	productCatalog := adapter.NewProductCatalog(productService)
	userDirectory := adapter.NewUserDirectory(userService)

	addItemUseCase := cartapp.NewAddItemToCartUseCase(
		cartRepo, productCatalog, userDirectory, idGenerator,
		cfg.CollaboratorTimeout, tel,
	)
	createOrderUseCase := orderapp.NewCreateOrderUseCase(
		orderRepo, cartReader, bus, idGenerator,
		cfg.CollaboratorTimeout, cfg.PublishTimeout, tel,
	)
	decrementStockUseCase := productapp.NewDecrementStockUseCase(productRepo, processedOrders, tel)

	stockWorker := productapp.NewWorker(bus, decrementStockUseCase, tel)
	stockWorker.Start()

	handler := httppresentation.NewHandler(
		addItemUseCase, cartService,
		createOrderUseCase, orderService,
		productService, userService,
		tel,
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		logger.Info("http_server_stopped")
	}
}
