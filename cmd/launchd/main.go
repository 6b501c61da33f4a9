// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// launchd is the launch-control daemon: flag rollout, telemetry
// monitoring, ticket escalation, and phase progression behind one
// HTTP surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lumenware/launchcontrol/internal/config"
	"github.com/lumenware/launchcontrol/pkg/logging"
	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/feedback"
	"github.com/lumenware/launchcontrol/services/launch/handlers"
	"github.com/lumenware/launchcontrol/services/launch/metrics"
	"github.com/lumenware/launchcontrol/services/launch/notify"
	"github.com/lumenware/launchcontrol/services/launch/observability"
	"github.com/lumenware/launchcontrol/services/launch/phase"
	"github.com/lumenware/launchcontrol/services/launch/rollout"
	"github.com/lumenware/launchcontrol/services/launch/routes"
	"github.com/lumenware/launchcontrol/services/launch/scheduler"
	"github.com/lumenware/launchcontrol/services/launch/tickets"
)

// Version is stamped by the build.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "launchd",
	Short: "Launch-control daemon",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the launch-control service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("launchd", Version)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("launchd: %v", err)
	}
}

// initTracer wires OTLP trace export when an endpoint is configured.
func initTracer(ctx context.Context, endpoint string) (func(context.Context), error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("launchcontrol")))
	if err != nil {
		return nil, err
	}
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(traceExporter)))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			log.Printf("OTLP exporter shutdown: %v", err)
		}
	}, nil
}

func logLevel(name string) logging.Level {
	switch name {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLogger := logging.New(logging.Config{
		Level:   logLevel(cfg.LogLevel),
		LogDir:  cfg.LogDir,
		Service: "launchd",
		JSON:    cfg.LogJSON,
	})
	defer appLogger.Close()
	logger := appLogger.Slog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		cleanup, err := initTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer cleanup(context.Background())
	}

	promMetrics := observability.InitMetrics()

	// Notification transport: webhook when configured, log otherwise.
	var notifier notify.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL)
	} else {
		notifier = &notify.LogNotifier{Logger: logger}
	}

	// Flag store: badger when a data directory is given.
	var flagStore rollout.FlagStore
	if cfg.DataDir != "" {
		flagStore, err = rollout.OpenBadgerStore(rollout.BadgerConfig{
			Path:   cfg.DataDir,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("open flag store: %w", err)
		}
	} else {
		logger.Info("DATA_DIR not set, using in-memory flag store")
		flagStore = rollout.NewMemoryStore()
	}
	defer flagStore.Close()

	allowlists := datatypes.NewAllowlists(cfg.VIPUsers, cfg.BetaUsers)
	flags := rollout.NewEngine(flagStore, allowlists, logger)

	if cfg.FlagFile != "" {
		if err := seedFlags(flags, cfg.FlagFile, logger); err != nil {
			return err
		}
	}

	collectorOpts := []metrics.CollectorOption{}
	if cfg.Influx.Enabled() {
		sink := metrics.NewInfluxSink(metrics.InfluxConfig{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		}, logger)
		defer sink.Close()
		collectorOpts = append(collectorOpts, metrics.WithSink(sink))
		logger.Info("influx telemetry mirror enabled", "url", cfg.Influx.URL)
	}
	collector := metrics.NewCollector(metrics.Config{
		Retention:              cfg.Retention.MetricSamples,
		ResolvedAlertRetention: cfg.Retention.ResolvedAlerts,
	}, notifier, logger, collectorOpts...)

	ticketEngine := tickets.NewEngine(tickets.NewMemoryTicketStore(), tickets.Config{
		ResolvedRetention: cfg.Retention.Tickets,
	}, allowlists, notifier, logger)

	feedbackStore := feedback.NewStore(logger, feedback.WithRetention(cfg.Retention.Feedback))

	controller := phase.NewController(phase.Config{
		InitialPhase: datatypes.LaunchPhase(cfg.InitialPhase),
	}, collector, ticketEngine, feedbackStore, flags, notifier, logger)

	deps := handlers.Deps{
		Flags:     flags,
		Collector: collector,
		Tickets:   ticketEngine,
		Feedback:  feedbackStore,
		Phase:     controller,
		Metrics:   promMetrics,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	sched := buildScheduler(cfg, deps, notifier, logger)
	sched.Start()
	defer sched.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, cfg.AdminKey, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("launchd listening", "port", cfg.Port, "version", Version,
			"phase", cfg.InitialPhase)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedFlags loads the flag file and starts the hot-reload watcher.
func seedFlags(flags *rollout.Engine, path string, logger *slog.Logger) error {
	seed, err := config.LoadFlagFile(path)
	if err != nil {
		return fmt.Errorf("seed flags: %w", err)
	}
	apply := func(list []datatypes.FeatureFlag) {
		for _, f := range list {
			if err := flags.SetFlag(f); err != nil {
				logger.Error("flag seed rejected", "flag", f.Name, "error", err)
			}
		}
	}
	apply(seed)
	logger.Info("flags seeded", "path", path, "count", len(seed))

	// The watcher lives for the whole process.
	return config.WatchFlagFile(path, apply, logger, make(chan struct{}))
}

// buildScheduler registers the maintenance tasks on their cadences.
func buildScheduler(cfg config.Config, d handlers.Deps, notifier notify.Notifier, logger *slog.Logger) *scheduler.Scheduler {
	sched := scheduler.New(logger)

	sched.Add("aggregate", cfg.Intervals.Aggregation, func(ctx context.Context) {
		for _, w := range d.Collector.AggregateAll(time.Now().UTC(), 5*time.Minute) {
			logger.Debug("window aggregated", "metric", string(w.Type),
				"count", w.Count, "mean", w.Mean, "rate", w.Rate)
		}
	})

	sched.Add("alert_check", cfg.Intervals.AlertCheck, func(ctx context.Context) {
		d.Collector.CheckAlerts(ctx, time.Now().UTC())
		for _, mt := range datatypes.KnownMetricTypes {
			d.Metrics.ActiveAlerts.WithLabelValues(string(mt)).Set(0)
		}
		for _, a := range d.Collector.ActiveAlerts() {
			d.Metrics.ActiveAlerts.WithLabelValues(string(a.Type)).Inc()
		}
	})

	sched.Add("ticket_sweep", cfg.Intervals.TicketSweep, func(ctx context.Context) {
		if n := d.Tickets.Sweep(ctx); n > 0 {
			d.Metrics.TicketsEscalatedTotal.Add(float64(n))
		}
	})

	sched.Add("cleanup", cfg.Intervals.Cleanup, func(ctx context.Context) {
		now := time.Now().UTC()
		d.Collector.Cleanup(now)
		d.Tickets.Cleanup(now)
		d.Feedback.Cleanup(now)
	})

	sched.Add("phase_eval", cfg.Intervals.PhaseEval, func(ctx context.Context) {
		snapshot, _ := d.Phase.Evaluate(ctx)
		currentPhase, _ := d.Phase.Phase()
		d.Metrics.LaunchPhase.Set(float64(currentPhase.Order()))
		d.Metrics.HealthScore.Set(snapshot.Score)
	})

	sched.Add("status_report", cfg.Intervals.StatusReport, func(ctx context.Context) {
		now := time.Now().UTC()
		open := d.Tickets.OpenCount()
		overdue := d.Tickets.OverdueCount(now)
		d.Metrics.OpenTickets.Set(float64(open))
		d.Metrics.OverdueTickets.Set(float64(overdue))

		currentPhase, _ := d.Phase.Phase()
		health := d.Phase.LastHealth()
		notify.Dispatch(ctx, notifier, logger, notify.Event{
			Type: notify.EventStatusReport,
			Message: fmt.Sprintf("phase=%s health=%s score=%.1f open_tickets=%d overdue=%d",
				currentPhase, health.Bucket, health.Score, open, overdue),
			Payload: map[string]any{
				"phase":           string(currentPhase),
				"health_bucket":   string(health.Bucket),
				"health_score":    health.Score,
				"open_tickets":    open,
				"overdue_tickets": overdue,
				"active_alerts":   len(d.Collector.ActiveAlerts()),
			},
			Timestamp: now,
		})
	})

	return sched
}
