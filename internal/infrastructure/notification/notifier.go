// Package notification delivers receivable change notifications outside
// the process.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level
func (l *LogNotifier) Notify(_ context.Context, n appledger.ReceivableNotification) error {
	l.logger.Info("Receivable changed",
		zap.String("tenant_id", n.TenantID.String()),
		zap.String("event_type", n.EventType),
		zap.String("driver_id", n.DriverID.String()),
		zap.String("driver_name", n.DriverName),
		zap.String("customer_name", n.CustomerName),
		zap.String("old_amount", n.OldAmount.String()),
		zap.String("new_amount", n.NewAmount.String()),
		zap.Any("change_by_size", n.ChangeBySize),
		zap.String("reason", n.Reason),
	)
	return nil
}

// WebhookNotifier POSTs each notification as JSON to a fixed URL
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier whose requests are traced
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Notify sends n; any non-2xx response is an error
func (w *WebhookNotifier) Notify(ctx context.Context, n appledger.ReceivableNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ledger-Event", n.EventType)
	req.Header.Set("X-Tenant-ID", n.TenantID.String())

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// New picks the notifier named by cfg.Driver
func New(cfg config.NotificationConfig, logger *zap.Logger) (appledger.Notifier, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook notifier requires a URL")
		}
		return NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
}
