// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notify is the outbound notification port for launch-control
// events.
//
// Delivery semantics are at-least-once, fire-and-forget: senders log
// failures and never propagate them to the originating operation. The
// actual transport (email, chat, pager) lives behind the Notifier
// interface; the open tree ships a log notifier and a webhook
// notifier.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// EventType tags a notification event.
type EventType string

const (
	EventAlertFired      EventType = "alert_fired"
	EventAlertResolved   EventType = "alert_resolved"
	EventTicketEscalated EventType = "ticket_escalated"
	EventPhaseAdvanced   EventType = "phase_advanced"
	EventStatusReport    EventType = "status_report"
)

// Event is one outbound notification.
type Event struct {
	Type      EventType      `json:"type"`
	Severity  string         `json:"severity,omitempty"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier delivers events to an external channel. Implementations
// must be safe for concurrent use and must not block indefinitely.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LogNotifier writes events to the structured log. It is the default
// when no webhook is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Send logs the event.
func (n *LogNotifier) Send(ctx context.Context, event Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		"event_type", string(event.Type),
		"severity", event.Severity,
		"message", event.Message,
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)

// WebhookNotifier POSTs events as JSON to a configured URL.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

// NewWebhookNotifier creates a webhook notifier with a 5-second
// request timeout.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Send POSTs the event. Non-2xx responses are errors; callers are
// expected to log and drop them.
func (n *WebhookNotifier) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

var _ Notifier = (*WebhookNotifier)(nil)

// Dispatch sends the event on a best-effort basis: errors are logged
// at Warn and swallowed so dispatch can never stall the caller.
func Dispatch(ctx context.Context, n Notifier, logger *slog.Logger, event Event) {
	if n == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := n.Send(ctx, event); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("notification dispatch failed",
			"event_type", string(event.Type),
			"error", err,
		)
	}
}
