package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/anderlopz/parkpass/internal/adapters/directions"
	"github.com/anderlopz/parkpass/internal/adapters/http"
	"github.com/anderlopz/parkpass/internal/adapters/location"
	natsadapter "github.com/anderlopz/parkpass/internal/adapters/nats"
	"github.com/anderlopz/parkpass/internal/adapters/parkingapi"
	"github.com/anderlopz/parkpass/internal/adapters/sqlite"
	temporaladapter "github.com/anderlopz/parkpass/internal/adapters/temporal"
	"github.com/anderlopz/parkpass/internal/adapters/valkey"
	"github.com/anderlopz/parkpass/internal/core/ports"
	"github.com/anderlopz/parkpass/internal/core/usecases"
	"github.com/anderlopz/parkpass/internal/pkg/config"
	"github.com/anderlopz/parkpass/internal/pkg/logging"
	"github.com/anderlopz/parkpass/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("parkpass-agent")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Trip journal
	journal, err := sqlite.Open(cfg.Journal.Path)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}
	defer journal.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Out-of-band cancel retry
	var cleanup usecases.CancelRetryEnqueuer = temporaladapter.NoopEnqueuer{}
	if cfg.Temporal.Enabled {
		enq, err := temporaladapter.NewEnqueuer(cfg.Temporal.HostPort)
		if err != nil {
			slog.Warn("temporal unavailable, cancel retries disabled", "error", err)
		} else {
			defer enq.Close()
			cleanup = enq
		}
	}

	// Backend clients
	api := parkingapi.New(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.Timeout)*time.Second,
		parkingapi.StaticToken(cfg.Backend.Token),
	)
	router := directions.New(cfg.Directions.BaseURL, time.Duration(cfg.Directions.Timeout)*time.Second)

	// Location feed: the platform shell pushes fixes over the control API.
	source := location.NewPushSource()

	// Use cases. The nil checks keep a typed nil out of the port interfaces.
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	tracker := usecases.NewLocationTracker(source, source.Heading())
	if err := tracker.Start(ctx); err != nil {
		log.Fatalf("location tracker: %v", err)
	}
	defer tracker.Stop()

	markerSvc := usecases.NewMarkerService(api, cacheSvc)
	expander := usecases.NewSearchExpander(markerSvc, cfg.Search.BaseRadiusKm, cfg.Search.MaxSteps, cfg.Search.StepDelay())
	estimator := usecases.NewRouteEstimator(router, cacheSvc)
	monitor := usecases.NewTripMonitor(api, tracker, cfg.Trip.PollInterval(), cfg.Trip.ArrivalThresholdM, cfg.Trip.FailureThreshold)

	var pub ports.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	coordinator := usecases.NewReservationCoordinator(
		api, markerSvc, estimator, tracker, monitor,
		pub, journal, cleanup, cfg.Trip.ArrivalThresholdM,
	)

	deps := &http.Dependencies{
		Markers:     markerSvc,
		Expander:    expander,
		Coordinator: coordinator,
		Tracker:     tracker,
		Location:    source,
		Publisher:   pub,
		Journal:     journal,
		NATS:        natsConn,
		Cache:       cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024, // Requests are tiny commands and GPS fixes
		AppName:      "ParkPass Agent",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("agent starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("agent stopped")
}
