package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lpgledger/backend/internal/domain/shared"
)

// Ledger specific error codes. Validation failures share shared.CodeValidation
// so the transport maps them to 400.
const (
	CodeReceivableNotFound = "RECEIVABLE_NOT_FOUND"
	CodeDriverNotFound     = "DRIVER_NOT_FOUND"
	CodeRecalculationBusy  = "RECALCULATION_IN_PROGRESS"
	CodeArchiveNotFound    = "ARCHIVE_NOT_FOUND"
)

var (
	ErrReceivableNotFound = shared.NewDomainError(CodeReceivableNotFound, "Customer receivable not found")
	ErrDriverNotFound     = shared.NewDomainError(CodeDriverNotFound, "Driver not found")
	ErrRecalculationBusy  = shared.NewDomainError(CodeRecalculationBusy, "A recalculation pass is already running for this tenant")
	ErrArchiveNotFound    = shared.NewDomainError(CodeArchiveNotFound, "No archived report for that date")
	ErrArchiveDisabled    = shared.NewDomainError(shared.CodeInvalidState, "Report archive is not configured")
)

// NewValidationError creates a 400-class error whose message is shown to the caller verbatim
func NewValidationError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.CodeValidation, fmt.Sprintf(format, args...))
}

// RecordFailure is one record that could not be corrected during a bulk pass
type RecordFailure struct {
	TenantID uuid.UUID `json:"tenant_id"`
	RecordID uuid.UUID `json:"record_id"`
	DriverID uuid.UUID `json:"driver_id"`
	Error    string    `json:"error"`
}

// PartialBatchError reports the failures of a best-effort bulk pass. It is
// returned together with the pass statistics, never in place of them.
type PartialBatchError struct {
	Failures []RecordFailure
}

func (e *PartialBatchError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("1 record failed: %s", e.Failures[0].Error)
	}
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.RecordID == uuid.Nil {
			msgs = append(msgs, "tenant "+f.TenantID.String())
			continue
		}
		msgs = append(msgs, f.RecordID.String())
	}
	return fmt.Sprintf("%d records failed: %s", len(e.Failures), strings.Join(msgs, ", "))
}

// Add records a failure
func (e *PartialBatchError) Add(f RecordFailure) {
	e.Failures = append(e.Failures, f)
}

// OrNil returns nil when nothing failed so callers can return it unconditionally
func (e *PartialBatchError) OrNil() error {
	if e == nil || len(e.Failures) == 0 {
		return nil
	}
	return e
}
