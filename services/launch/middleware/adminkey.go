// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides the HTTP middleware for the launch
// service: admin-key gating on management endpoints and per-endpoint
// rate limiting on the public submission surface.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminKeyHeader carries the management credential.
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey gates management endpoints on a shared key. An
// empty configured key means the management surface is disabled: the
// middleware answers 503 rather than silently allowing everyone in.
// Comparison is constant time.
func RequireAdminKey(key string, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "admin interface is not configured",
			})
			return
		}
		presented := c.GetHeader(AdminKeyHeader)
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			logger.Warn("admin key rejected",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing admin key",
			})
			return
		}
		c.Next()
	}
}
