// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// SampleSink mirrors recorded samples to an external time-series
// store. Write must never block the caller.
type SampleSink interface {
	Write(sample datatypes.MetricSample)
	Close()
}

// InfluxSink writes samples to InfluxDB via the client's non-blocking
// write API. Failed writes are logged and dropped; the collector's
// in-memory state is the source of truth for alerting either way.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   *slog.Logger
}

// InfluxConfig locates the InfluxDB instance.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// NewInfluxSink connects a sink to InfluxDB. The returned sink must be
// closed to flush buffered points.
func NewInfluxSink(cfg InfluxConfig, logger *slog.Logger) *InfluxSink {
	if logger == nil {
		logger = slog.Default()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	sink := &InfluxSink{
		client:   client,
		writeAPI: writeAPI,
		logger:   logger,
	}

	// The async write API reports failures on a channel; drain it so
	// errors surface in the log instead of piling up.
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("influx sample write failed", "error", err)
		}
	}()

	return sink
}

// Write queues the sample as an influx point.
func (s *InfluxSink) Write(sample datatypes.MetricSample) {
	point := influxdb2.NewPoint(
		"launch_metrics",
		mergeTags(sample),
		map[string]interface{}{"value": sample.Value},
		sample.Timestamp,
	)
	s.writeAPI.WritePoint(point)
}

// Close flushes buffered points and closes the client.
func (s *InfluxSink) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}

var _ SampleSink = (*InfluxSink)(nil)

// mergeTags combines the metric type with the sample's dimensional
// tags.
func mergeTags(sample datatypes.MetricSample) map[string]string {
	tags := map[string]string{"metric_type": string(sample.Type)}
	for k, v := range sample.Tags {
		tags[k] = v
	}
	return tags
}
