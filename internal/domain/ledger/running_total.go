package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCashTolerance is the largest cash gap left uncorrected
var DefaultCashTolerance = decimal.NewFromFloat(0.01)

// TotalCorrection is a record whose stored totals disagree with its history
type TotalCorrection struct {
	Record       *ReceivableRecord
	OldCash      decimal.Decimal
	NewCash      decimal.Decimal
	OldCylinders int
	NewCylinders int
}

// RecordID returns the corrected record's id
func (c TotalCorrection) RecordID() uuid.UUID { return c.Record.ID }

// SortRecordsByDate returns the records ordered by calendar date. The sort is
// stable so rows sharing a date keep their fetch order.
func SortRecordsByDate(records []*ReceivableRecord) []*ReceivableRecord {
	ordered := make([]*ReceivableRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return CalendarDay(ordered[i].Date).Before(CalendarDay(ordered[j].Date))
	})
	return ordered
}

// RecalculateRunningTotals walks one driver's records in date order and
// returns the records whose stored totals must change. It does not mutate the
// records.
//
// A record carries forward the previous record's total unless both fall on the
// same calendar date, in which case it starts from zero. The carried value is
// the total that will be stored after the pass (the corrected total, or the
// stored one when it is within tolerance), so a second pass over the result
// finds nothing to correct. Every record becomes the baseline for the next,
// which makes the last record of a date the one the next date carries forward.
func RecalculateRunningTotals(records []*ReceivableRecord, cashTolerance decimal.Decimal) []TotalCorrection {
	var (
		corrections  []TotalCorrection
		prevCash     decimal.Decimal
		prevCylinder int
		prevDate     *time.Time
	)

	for _, r := range SortRecordsByDate(records) {
		carryCash, carryCylinders := prevCash, prevCylinder
		if prevDate != nil && SameCalendarDay(*prevDate, r.Date) {
			carryCash, carryCylinders = decimal.Zero, 0
		}

		cash, cylinders := r.ExpectedTotals(carryCash, carryCylinders)
		if cash.Sub(r.TotalCashReceivables).Abs().GreaterThan(cashTolerance) || cylinders != r.TotalCylinderReceivables {
			corrections = append(corrections, TotalCorrection{
				Record:       r,
				OldCash:      r.TotalCashReceivables,
				NewCash:      cash,
				OldCylinders: r.TotalCylinderReceivables,
				NewCylinders: cylinders,
			})
			prevCash, prevCylinder = cash, cylinders
		} else {
			prevCash, prevCylinder = r.TotalCashReceivables, r.TotalCylinderReceivables
		}

		d := r.Date
		prevDate = &d
	}
	return corrections
}

// ContinuityViolation describes a stored total that breaks carry-forward
type ContinuityViolation struct {
	RecordID          uuid.UUID
	Date              time.Time
	ExpectedCash      decimal.Decimal
	StoredCash        decimal.Decimal
	ExpectedCylinders int
	StoredCylinders   int
}

// VerifyContinuity checks the stored totals of one driver's records without
// recomputing them: each total must equal its change plus onboarding plus the
// previous stored total (zero when the previous record shares its date).
func VerifyContinuity(records []*ReceivableRecord, cashTolerance decimal.Decimal) []ContinuityViolation {
	var (
		violations []ContinuityViolation
		prev       *ReceivableRecord
	)
	for _, r := range SortRecordsByDate(records) {
		carryCash, carryCylinders := decimal.Zero, 0
		if prev != nil && !SameCalendarDay(prev.Date, r.Date) {
			carryCash, carryCylinders = prev.TotalCashReceivables, prev.TotalCylinderReceivables
		}
		cash, cylinders := r.ExpectedTotals(carryCash, carryCylinders)
		if cash.Sub(r.TotalCashReceivables).Abs().GreaterThan(cashTolerance) || cylinders != r.TotalCylinderReceivables {
			violations = append(violations, ContinuityViolation{
				RecordID:          r.ID,
				Date:              r.Date,
				ExpectedCash:      cash,
				StoredCash:        r.TotalCashReceivables,
				ExpectedCylinders: cylinders,
				StoredCylinders:   r.TotalCylinderReceivables,
			})
		}
		prev = r
	}
	return violations
}

// CarryBefore returns the totals a new record dated date should carry forward:
// the totals of the latest record strictly before that calendar date.
func CarryBefore(records []*ReceivableRecord, date time.Time) (decimal.Decimal, int) {
	day := CalendarDay(date)
	cash, cylinders := decimal.Zero, 0
	for _, r := range SortRecordsByDate(records) {
		if !CalendarDay(r.Date).Before(day) {
			break
		}
		cash, cylinders = r.TotalCashReceivables, r.TotalCylinderReceivables
	}
	return cash, cylinders
}
