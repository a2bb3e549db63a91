package ledger

import (
	"time"

	"github.com/google/uuid"
)

// InventorySizeLine is the optional per-size split of an inventory snapshot
type InventorySizeLine struct {
	Size  CylinderSize `json:"size"`
	Full  int          `json:"full"`
	Empty int          `json:"empty"`
}

// InventoryRecord is the tenant's warehouse cylinder count for one date.
// FullCylinders and EmptyCylinders are authoritative; Lines may be empty.
type InventoryRecord struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Date           time.Time
	FullCylinders  int
	EmptyCylinders int
	Lines          []InventorySizeLine
}

// BySize returns full and empty counts per size. Without per-size lines the
// aggregate counts are allocated using weights.
func (r *InventoryRecord) BySize(weights map[CylinderSize]int) (full, empty map[CylinderSize]int) {
	if len(r.Lines) > 0 {
		full, empty = map[CylinderSize]int{}, map[CylinderSize]int{}
		for _, l := range r.Lines {
			full[l.Size] += l.Full
			empty[l.Size] += l.Empty
		}
		return full, empty
	}
	return AllocateBySize(r.FullCylinders, weights), AllocateBySize(r.EmptyCylinders, weights)
}
