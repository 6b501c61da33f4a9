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

	"github.com/gin-gonic/gin"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
	"github.com/lumenware/launchcontrol/services/launch/tickets"
)

// SubmitIssue creates a support ticket from an issue report and
// answers with the derived priority and the SLA estimate the
// requester can expect a first response within.
func SubmitIssue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.IssueReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ticket, err := d.Tickets.Create(req)
		if err != nil {
			d.logger().Error("ticket creation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create ticket"})
			return
		}
		if d.Metrics != nil {
			d.Metrics.TicketsCreatedTotal.WithLabelValues(string(ticket.Priority)).Inc()
		}
		c.JSON(http.StatusCreated, gin.H{
			"ticket_id":         ticket.ID,
			"priority":          ticket.Priority,
			"expected_response": d.Tickets.SLAFor(ticket.Priority).String(),
		})
	}
}

// SubmitFeedback records a satisfaction report.
func SubmitFeedback(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		entry := d.Feedback.Record(req)
		c.JSON(http.StatusCreated, gin.H{"id": entry.ID, "status": "received"})
	}
}

// PatchTicket updates assignee, status, or appends a response. Admin
// only.
func PatchTicket(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var patch datatypes.TicketPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err)
			return
		}
		ticket, err := d.Tickets.Update(id, patch)
		switch {
		case errors.Is(err, tickets.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown ticket"})
			return
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}
