package ledger

import (
	"context"
	"fmt"

	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NotificationHandler turns committed ledger events into receivable
// notifications. Delivery failures are logged and swallowed so the outbox
// never retries a ledger event because a messaging provider is down.
type NotificationHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifier Notifier, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{notifier: notifier, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeCustomerPaymentRecorded,
		ledger.EventTypeCylinderReturnRecorded,
		ledger.EventTypeDriverReceivablesChanged,
	}
}

// Handle builds the notification for the event and hands it to the notifier
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	n, err := buildNotification(event)
	if err != nil {
		return err
	}
	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.Warn("Receivable notification failed",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.String("tenant_id", event.TenantID().String()),
			zap.Error(err),
		)
	}
	return nil
}

func buildNotification(event shared.DomainEvent) (ReceivableNotification, error) {
	n := ReceivableNotification{
		TenantID:  event.TenantID(),
		EventType: event.EventType(),
		Timestamp: event.OccurredAt(),
	}
	switch e := event.(type) {
	case *ledger.CustomerPaymentRecordedEvent:
		n.DriverID, n.DriverName, n.CustomerName = e.DriverID, e.DriverName, e.CustomerName
		n.OldAmount, n.NewAmount = e.OldAmount, e.NewAmount
		n.Reason = fmt.Sprintf("%s payment of %s", e.Method, e.Amount.StringFixed(2))
	case *ledger.CylinderReturnRecordedEvent:
		n.DriverID, n.DriverName, n.CustomerName = e.DriverID, e.DriverName, e.CustomerName
		n.OldAmount = decimal.NewFromInt(int64(e.OldQuantity))
		n.NewAmount = decimal.NewFromInt(int64(e.NewQuantity))
		n.ChangeBySize = map[ledger.CylinderSize]int{e.Size: -e.Quantity}
		n.Reason = fmt.Sprintf("returned %d x %s cylinders", e.Quantity, e.Size)
	case *ledger.DriverReceivablesChangedEvent:
		n.DriverID, n.DriverName = e.DriverID, e.DriverName
		n.OldAmount, n.NewAmount = e.OldCash, e.NewCash
		n.ChangeBySize = e.ChangeBySize
		n.Reason = e.Reason
	default:
		return n, fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return n, nil
}
