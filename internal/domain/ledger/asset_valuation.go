package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEmptyCylinderPriceRatio prices an empty cylinder at 20% of a full one
var DefaultEmptyCylinderPriceRatio = decimal.NewFromFloat(0.2)

// AssetCategory classifies a valuation line
type AssetCategory string

const (
	AssetCashReceivables AssetCategory = "CASH_RECEIVABLES"
	AssetFullCylinders   AssetCategory = "FULL_CYLINDERS"
	AssetEmptyCylinders  AssetCategory = "EMPTY_CYLINDERS"
)

// PricePoint is one company's price for a size and how many units it sold
type PricePoint struct {
	Size         CylinderSize
	Company      string
	FullPrice    decimal.Decimal
	QuantitySold int
}

// ValuationInput gathers everything the valuation needs
type ValuationInput struct {
	AsOf            time.Time
	CashReceivables decimal.Decimal
	Inventory       *InventoryRecord
	Prices          []PricePoint
	// PriceOverrides replaces the derived full price of a size
	PriceOverrides  map[CylinderSize]decimal.Decimal
	EmptyPriceRatio decimal.Decimal
}

// AssetLine is one named balance-sheet asset
type AssetLine struct {
	Name      string          `json:"name"`
	Category  AssetCategory   `json:"category"`
	Size      CylinderSize    `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// AssetValuation is the valuation result
type AssetValuation struct {
	AsOf  time.Time       `json:"as_of"`
	Lines []AssetLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// WeightedFullPrices averages each size's full price across companies,
// weighted by quantity sold. Sizes with no sales use the plain mean.
func WeightedFullPrices(points []PricePoint) map[CylinderSize]decimal.Decimal {
	type acc struct {
		weighted decimal.Decimal
		qty      int64
		sum      decimal.Decimal
		n        int64
	}
	bySize := map[CylinderSize]*acc{}
	for _, p := range points {
		a, ok := bySize[p.Size]
		if !ok {
			a = &acc{}
			bySize[p.Size] = a
		}
		if p.QuantitySold > 0 {
			a.weighted = a.weighted.Add(p.FullPrice.Mul(decimal.NewFromInt(int64(p.QuantitySold))))
			a.qty += int64(p.QuantitySold)
		}
		a.sum = a.sum.Add(p.FullPrice)
		a.n++
	}

	out := make(map[CylinderSize]decimal.Decimal, len(bySize))
	for size, a := range bySize {
		if a.qty > 0 {
			out[size] = a.weighted.Div(decimal.NewFromInt(a.qty)).Round(2)
		} else {
			out[size] = a.sum.Div(decimal.NewFromInt(a.n)).Round(2)
		}
	}
	return out
}

// ValueAssets produces the cash receivables line plus a full and an empty
// cylinder line per size. Cylinder receivables are deliberately absent: the
// cylinders customers owe are the same physical units already counted as
// empty inventory.
func ValueAssets(in ValuationInput) AssetValuation {
	ratio := in.EmptyPriceRatio
	if ratio.IsZero() {
		ratio = DefaultEmptyCylinderPriceRatio
	}

	prices := WeightedFullPrices(in.Prices)
	for size, price := range in.PriceOverrides {
		prices[size] = price
	}

	weights := map[CylinderSize]int{}
	for _, p := range in.Prices {
		weights[p.Size] += p.QuantitySold
	}
	if sumWeights(weights) == 0 {
		for size := range prices {
			weights[size] = 1
		}
	}

	val := AssetValuation{AsOf: in.AsOf, Total: decimal.Zero}
	val.add(AssetLine{
		Name:      "Cash Receivables",
		Category:  AssetCashReceivables,
		Quantity:  1,
		UnitPrice: in.CashReceivables,
		Value:     in.CashReceivables,
	})

	var full, empty map[CylinderSize]int
	if in.Inventory != nil {
		full, empty = in.Inventory.BySize(weights)
	}

	sizes := make([]CylinderSize, 0, len(prices))
	for size := range prices {
		sizes = append(sizes, size)
	}
	for size := range full {
		if _, ok := prices[size]; !ok {
			sizes = append(sizes, size)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	for _, size := range sizes {
		fullPrice := prices[size]
		emptyPrice := fullPrice.Mul(ratio).Round(2)
		val.add(cylinderLine(AssetFullCylinders, "Full Cylinders", size, full[size], fullPrice))
		val.add(cylinderLine(AssetEmptyCylinders, "Empty Cylinders", size, empty[size], emptyPrice))
	}
	return val
}

func cylinderLine(cat AssetCategory, label string, size CylinderSize, qty int, unit decimal.Decimal) AssetLine {
	return AssetLine{
		Name:      fmt.Sprintf("%s %s", label, size),
		Category:  cat,
		Size:      size,
		Quantity:  qty,
		UnitPrice: unit,
		Value:     unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func (v *AssetValuation) add(line AssetLine) {
	v.Lines = append(v.Lines, line)
	v.Total = v.Total.Add(line.Value)
}

func sumWeights(w map[CylinderSize]int) int {
	n := 0
	for _, v := range w {
		n += v
	}
	return n
}
