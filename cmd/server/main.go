// Package main is the entry point for the payment form service.
// It wires configuration, logging, metrics and the form sessions into a
// Fiber HTTP server and runs it until interrupted.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cardform/internal/clock"
	"cardform/internal/config"
	applogger "cardform/internal/logger"
	"cardform/internal/metrics"
	"cardform/internal/middleware"
	"cardform/internal/repositories"
	"cardform/internal/routes"
	"cardform/internal/services/payment"
	"cardform/internal/services/paymentform"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	config.LoadEnv()
	cfg := config.Load()

	zapLogger := applogger.New(cfg.LogLevel, applogger.ParseFormat(cfg.LogFormat))
	defer func() { _ = zapLogger.Sync() }()
	log := zapLogger.Named(applogger.ComponentServer).Sugar()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	clk := clock.NewSystem(cfg.Location())
	backend := payment.NewStubBackend(cfg.BackendDelay)
	if cfg.BackendFailure != "" {
		backend.FailWith = errors.New(cfg.BackendFailure)
	}

	formLogger := zapLogger.Named(applogger.ComponentForm).Sugar()
	sessions := repositories.NewSessionRepository(
		func(id string) *paymentform.Controller {
			return paymentform.NewController(
				clk,
				backend,
				paymentform.WithID(id),
				paymentform.WithLogger(formLogger),
				paymentform.WithMetrics(collector),
				paymentform.WithSubmitTimeout(cfg.SubmitTimeout),
			)
		},
		collector,
		zapLogger.Named(applogger.ComponentSessions).Sugar(),
	)
	defer sessions.CloseAll()

	app := fiber.New(fiber.Config{
		AppName:               "cardform",
		DisableStartupMessage: true,
	})

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE",
		AllowCredentials: !strings.Contains(cfg.AllowedOrigins, "*"),
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	fieldLimiter := middleware.NewSessionRateLimiter(
		float64(config.GetIntEnv("FIELD_EDITS_PER_SECOND", 20)),
		config.GetIntEnv("FIELD_EDITS_BURST", 40),
	)

	routes.SetupRoutes(app, routes.Dependencies{
		Sessions:     sessions,
		Gatherer:     reg,
		TokenSecret:  cfg.TokenSecret,
		TokenTTL:     cfg.TokenTTL,
		CreateLimit:  config.GetIntEnv("FORM_CREATE_LIMIT", 30),
		FieldLimiter: fieldLimiter,
		Logger:       zapLogger.Named(applogger.ComponentHTTP).Sugar(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Listening on :%s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	g.Go(func() error {
		return runJanitor(gctx, sessions, fieldLimiter, cfg.SessionIdleTTL)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Server stopped: %v", err)
		return
	}
	log.Info("Server stopped")
}

// runJanitor disposes forms nobody touched for idleTTL along with their rate
// limiter buckets.
func runJanitor(ctx context.Context, sessions repositories.SessionRepository, limiter *middleware.SessionRateLimiter, idleTTL time.Duration) error {
	if idleTTL <= 0 {
		return nil
	}

	interval := idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sessions.Sweep(idleTTL)
			limiter.Cleanup(idleTTL)
		}
	}
}
