// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the service configuration from the environment
// and the optional flag seed file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration. Every field has an
// environment binding; unset optional integrations (Influx, webhook,
// OTLP) disable themselves.
type Config struct {
	Port     int    `env:"PORT" envDefault:"12300"`
	AdminKey string `env:"ADMIN_KEY"`

	// FlagFile seeds the flag store at startup and is watched for
	// changes while running. Optional.
	FlagFile string `env:"FLAG_FILE"`

	// DataDir is the badger directory for flag persistence. Empty
	// selects the in-memory store.
	DataDir string `env:"DATA_DIR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
	LogDir   string `env:"LOG_DIR"`

	// WebhookURL receives notification events. Empty falls back to
	// log-only notifications.
	WebhookURL string `env:"WEBHOOK_URL"`

	// VIPUsers and BetaUsers are comma-separated identifier lists for
	// segment targeting.
	VIPUsers  []string `env:"VIP_USERS" envSeparator:","`
	BetaUsers []string `env:"BETA_USERS" envSeparator:","`

	// InitialPhase lets a redeploy resume a launch mid-flight.
	InitialPhase string `env:"INITIAL_PHASE" envDefault:"beta"`

	Influx InfluxConfig `envPrefix:"INFLUXDB_"`

	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	Intervals Intervals
	Retention Retention
}

// InfluxConfig configures the optional telemetry mirror. Enabled only
// when URL and Token are both set.
type InfluxConfig struct {
	URL    string `env:"URL"`
	Token  string `env:"TOKEN"`
	Org    string `env:"ORG" envDefault:"lumenware"`
	Bucket string `env:"BUCKET" envDefault:"launch_metrics"`
}

// Enabled reports whether the mirror should be wired.
func (c InfluxConfig) Enabled() bool {
	return c.URL != "" && c.Token != ""
}

// Intervals are the maintenance task cadences.
type Intervals struct {
	Aggregation  time.Duration `env:"AGGREGATION_INTERVAL" envDefault:"1m"`
	AlertCheck   time.Duration `env:"ALERT_CHECK_INTERVAL" envDefault:"1m"`
	TicketSweep  time.Duration `env:"TICKET_SWEEP_INTERVAL" envDefault:"1m"`
	Cleanup      time.Duration `env:"CLEANUP_INTERVAL" envDefault:"24h"`
	PhaseEval    time.Duration `env:"PHASE_EVAL_INTERVAL" envDefault:"5m"`
	StatusReport time.Duration `env:"STATUS_REPORT_INTERVAL" envDefault:"15m"`
}

// Retention bounds how long derived state is kept.
type Retention struct {
	MetricSamples  time.Duration `env:"METRIC_RETENTION" envDefault:"720h"`
	ResolvedAlerts time.Duration `env:"RESOLVED_ALERT_RETENTION" envDefault:"168h"`
	Tickets        time.Duration `env:"TICKET_RETENTION" envDefault:"720h"`
	Feedback       time.Duration `env:"FEEDBACK_RETENTION" envDefault:"720h"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT %d outside [1,65535]", cfg.Port)
	}
	switch cfg.InitialPhase {
	case "beta", "soft-launch", "full-launch":
	default:
		return fmt.Errorf("INITIAL_PHASE %q must be beta, soft-launch, or full-launch", cfg.InitialPhase)
	}
	for name, d := range map[string]time.Duration{
		"AGGREGATION_INTERVAL":   cfg.Intervals.Aggregation,
		"ALERT_CHECK_INTERVAL":   cfg.Intervals.AlertCheck,
		"TICKET_SWEEP_INTERVAL":  cfg.Intervals.TicketSweep,
		"CLEANUP_INTERVAL":       cfg.Intervals.Cleanup,
		"PHASE_EVAL_INTERVAL":    cfg.Intervals.PhaseEval,
		"STATUS_REPORT_INTERVAL": cfg.Intervals.StatusReport,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
