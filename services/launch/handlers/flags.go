// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lumenware/launchcontrol/pkg/validation"
	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/rollout"
)

// EvaluateFlag answers enable/disable for one user. The response is
// always 200 with a boolean once the inputs parse; unknown flags and
// internal failures both come back enabled=false. Callers gate
// features on this answer, so the failure mode must be "feature off",
// never an error they might interpret loosely.
func EvaluateFlag(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := validation.ValidateFlagName(name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		identifier, err := validation.SanitizeIdentifier(c.Query("identifier"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		historyCount, _ := strconv.Atoi(c.Query("history_count"))

		user := datatypes.UserContext{
			Identifier:   identifier,
			Industry:     c.Query("industry"),
			Role:         c.Query("role"),
			HistoryCount: historyCount,
		}

		enabled := d.Flags.IsEnabled(name, user)
		if d.Metrics != nil {
			decision := "disabled"
			if enabled {
				decision = "enabled"
			}
			d.Metrics.FlagEvaluationsTotal.WithLabelValues(name, decision).Inc()
		}
		c.JSON(http.StatusOK, gin.H{"enabled": enabled})
	}
}

// ListFlags returns every flag definition. Admin only.
func ListFlags(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		flags, err := d.Flags.ListFlags()
		if err != nil {
			d.logger().Error("list flags failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "flag store unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"flags": flags, "count": len(flags)})
	}
}

// UpsertFlag creates or replaces a flag definition. Admin only.
func UpsertFlag(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.FlagUpsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if err := validation.ValidateFlagName(req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := d.Flags.SetFlag(req.Flag(timeNow())); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d.logger().Info("flag upserted", "flag", req.Name,
			"percentage", req.RolloutPercentage, "enabled", req.Enabled)
		c.JSON(http.StatusCreated, gin.H{"name": req.Name, "status": "stored"})
	}
}

// PatchFlag partially updates an existing flag. Admin only.
func PatchFlag(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		var patch datatypes.FlagPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err)
			return
		}
		flag, err := d.Flags.UpdateFlag(name, patch)
		switch {
		case errors.Is(err, rollout.ErrFlagNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown flag"})
			return
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, flag)
	}
}
