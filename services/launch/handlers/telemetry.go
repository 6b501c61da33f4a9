// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// IngestTelemetry accepts one metric sample. Delivery is at-least-once
// with no dedup key; duplicate samples shift the aggregate slightly
// and that is accepted. Unknown metric types are recorded but never
// alert.
func IngestTelemetry(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.TelemetryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		var ts time.Time
		if req.Timestamp != nil {
			ts = *req.Timestamp
		}
		d.Collector.Record(datatypes.MetricSample{
			Type:      datatypes.MetricType(req.Type),
			Timestamp: ts,
			Value:     req.Value,
			Tags:      req.Tags,
		})
		if d.Metrics != nil {
			d.Metrics.SamplesIngestedTotal.WithLabelValues(req.Type).Inc()
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
	}
}
