package ledger

import (
	"sort"

	"github.com/google/uuid"
)

// AllocateBySize splits total across sizes in proportion to weights. Each
// share is the rounded proportional amount; the rounding is done by largest
// remainder so the shares always add up to total. Negative totals are split
// by magnitude and negated. Sizes with non-positive weight receive nothing,
// and nil is returned when no size has positive weight.
func AllocateBySize(total int, weights map[CylinderSize]int) map[CylinderSize]int {
	sizes := make([]CylinderSize, 0, len(weights))
	weightSum := 0
	for size, w := range weights {
		if w > 0 {
			sizes = append(sizes, size)
			weightSum += w
		}
	}
	if weightSum == 0 {
		return nil
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	sign := 1
	if total < 0 {
		sign, total = -1, -total
	}

	type share struct {
		size      CylinderSize
		remainder int
	}
	out := make(map[CylinderSize]int, len(sizes))
	shares := make([]share, 0, len(sizes))
	assigned := 0
	for _, size := range sizes {
		numerator := total * weights[size]
		base := numerator / weightSum
		out[size] = base
		assigned += base
		shares = append(shares, share{size: size, remainder: numerator % weightSum})
	}

	// hand out the leftover units to the largest remainders, ties by size name
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].remainder > shares[j].remainder })
	for i := 0; i < total-assigned; i++ {
		out[shares[i].size]++
	}

	if sign < 0 {
		for size := range out {
			out[size] = -out[size]
		}
	}
	return out
}

// DriverDepositHistory is the input for one driver's size attribution
type DriverDepositHistory struct {
	DriverID                 uuid.UUID
	TotalCylinderReceivables int
	// DepositsBySize sums cylindersDeposited of the driver's REFILL sales
	DepositsBySize   map[CylinderSize]int
	TransactionCount int
}

// DriverAttribution is one driver's contribution to the breakdown
type DriverAttribution struct {
	DriverID                 uuid.UUID            `json:"driver_id"`
	TotalCylinderReceivables int                  `json:"total_cylinder_receivables"`
	BySize                   map[CylinderSize]int `json:"by_size,omitempty"`
	Attributed               bool                 `json:"attributed"`
}

// SizeBreakdown attributes cylinder receivables to sizes from deposit history
type SizeBreakdown struct {
	BySize map[CylinderSize]int `json:"by_size"`
	// DriverCount counts drivers with a nonzero latest total
	DriverCount             int                 `json:"driver_count"`
	AttributedDriverCount   int                 `json:"attributed_driver_count"`
	UnattributedDriverCount int                 `json:"unattributed_driver_count"`
	TransactionCount        int                 `json:"transaction_count"`
	AttributedTotal         int                 `json:"attributed_total"`
	UnattributedTotal       int                 `json:"unattributed_total"`
	Drivers                 []DriverAttribution `json:"drivers"`
}

// CalculateExactReceivablesBySize distributes each driver's latest cylinder
// receivable across the sizes that driver actually took deposits for, weighted
// by deposit quantity, and sums the shares per size. Drivers without any
// sized deposit history stay unattributed rather than being spread over sizes
// they never handled.
func CalculateExactReceivablesBySize(histories []DriverDepositHistory) SizeBreakdown {
	out := SizeBreakdown{BySize: map[CylinderSize]int{}}
	for _, h := range histories {
		if h.TotalCylinderReceivables == 0 {
			continue
		}
		out.DriverCount++
		out.TransactionCount += h.TransactionCount

		attr := DriverAttribution{DriverID: h.DriverID, TotalCylinderReceivables: h.TotalCylinderReceivables}
		weights := make(map[CylinderSize]int, len(h.DepositsBySize))
		for size, qty := range h.DepositsBySize {
			if size != Unsized {
				weights[size] = qty
			}
		}
		shares := AllocateBySize(h.TotalCylinderReceivables, weights)
		if shares == nil {
			out.UnattributedDriverCount++
			out.UnattributedTotal += h.TotalCylinderReceivables
			out.Drivers = append(out.Drivers, attr)
			continue
		}

		attr.Attributed = true
		attr.BySize = shares
		for size, qty := range shares {
			out.BySize[size] += qty
		}
		out.AttributedDriverCount++
		out.AttributedTotal += h.TotalCylinderReceivables
		out.Drivers = append(out.Drivers, attr)
	}
	return out
}

// SizeDelta is a per-size disagreement between two breakdowns
type SizeDelta struct {
	Size     CylinderSize `json:"size"`
	Expected int          `json:"expected"`
	Actual   int          `json:"actual"`
	Delta    int          `json:"delta"`
}

// BreakdownComparison is the result of CompareBreakdowns
type BreakdownComparison struct {
	Matches   bool        `json:"matches"`
	Tolerance int         `json:"tolerance"`
	Deltas    []SizeDelta `json:"deltas"`
}

// CompareBreakdowns reports sizes whose quantities differ by more than
// tolerance. Sizes missing on one side count as zero.
func CompareBreakdowns(expected, actual map[CylinderSize]int, tolerance int) BreakdownComparison {
	if tolerance < 0 {
		tolerance = 0
	}
	sizes := map[CylinderSize]struct{}{}
	for s := range expected {
		sizes[s] = struct{}{}
	}
	for s := range actual {
		sizes[s] = struct{}{}
	}
	ordered := make([]CylinderSize, 0, len(sizes))
	for s := range sizes {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	cmp := BreakdownComparison{Matches: true, Tolerance: tolerance, Deltas: []SizeDelta{}}
	for _, s := range ordered {
		delta := actual[s] - expected[s]
		if abs(delta) > tolerance {
			cmp.Matches = false
			cmp.Deltas = append(cmp.Deltas, SizeDelta{Size: s, Expected: expected[s], Actual: actual[s], Delta: delta})
		}
	}
	return cmp
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
