package event

import (
	"github.com/lpgledger/backend/internal/domain/ledger"
)

// RegisterLedgerEvents registers the ledger event types with the serializer
// so the outbox processor can rebuild them from stored payloads.
func RegisterLedgerEvents(serializer *EventSerializer) {
	serializer.Register(ledger.EventTypeCustomerPaymentRecorded, &ledger.CustomerPaymentRecordedEvent{})
	serializer.Register(ledger.EventTypeCylinderReturnRecorded, &ledger.CylinderReturnRecordedEvent{})
	serializer.Register(ledger.EventTypeDriverReceivablesChanged, &ledger.DriverReceivablesChangedEvent{})
}
