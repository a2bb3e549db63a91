package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(m map[CylinderSize]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func TestAllocateBySize(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		weights map[CylinderSize]int
		want    map[CylinderSize]int
	}{
		{"proportional", 10, map[CylinderSize]int{"12L": 30, "35L": 10}, map[CylinderSize]int{"12L": 8, "35L": 2}},
		{"equal thirds keep the total", 10, map[CylinderSize]int{"12L": 1, "35L": 1, "50L": 1}, map[CylinderSize]int{"12L": 4, "35L": 3, "50L": 3}},
		{"negative total", -5, map[CylinderSize]int{"12L": 1, "35L": 1}, map[CylinderSize]int{"12L": -3, "35L": -2}},
		{"zero weight sizes are skipped", 4, map[CylinderSize]int{"12L": 2, "35L": 0}, map[CylinderSize]int{"12L": 4}},
		{"zero total", 0, map[CylinderSize]int{"12L": 2}, map[CylinderSize]int{"12L": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllocateBySize(tt.total, tt.weights)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.total, sum(got))
		})
	}

	assert.Nil(t, AllocateBySize(5, map[CylinderSize]int{"12L": 0}))
	assert.Nil(t, AllocateBySize(5, nil))
}

func TestCalculateExactReceivablesBySize(t *testing.T) {
	histories := []DriverDepositHistory{
		{DriverID: uuid.New(), TotalCylinderReceivables: 10, DepositsBySize: map[CylinderSize]int{"12L": 6, "35L": 2}, TransactionCount: 4},
		{DriverID: uuid.New(), TotalCylinderReceivables: 7, DepositsBySize: map[CylinderSize]int{"12L": 1, "35L": 1, "50L": 1}, TransactionCount: 3},
		// handled only 50L, never 12L
		{DriverID: uuid.New(), TotalCylinderReceivables: 3, DepositsBySize: map[CylinderSize]int{"50L": 9}, TransactionCount: 2},
		// receivables but no sized deposits: unattributed
		{DriverID: uuid.New(), TotalCylinderReceivables: 5, DepositsBySize: map[CylinderSize]int{Unsized: 4}, TransactionCount: 1},
		// settled driver is skipped
		{DriverID: uuid.New(), TotalCylinderReceivables: 0, DepositsBySize: map[CylinderSize]int{"12L": 5}, TransactionCount: 9},
	}

	got := CalculateExactReceivablesBySize(histories)

	// driver 1: 7.5/2.5 -> tie broken by name: 12L 8, 35L 2
	// driver 2: 7/3 each -> 12L 3, 35L 2, 50L 2
	// driver 3: 50L 3
	assert.Equal(t, map[CylinderSize]int{"12L": 11, "35L": 4, "50L": 5}, got.BySize)
	assert.Equal(t, 4, got.DriverCount)
	assert.Equal(t, 3, got.AttributedDriverCount)
	assert.Equal(t, 1, got.UnattributedDriverCount)
	assert.Equal(t, 5, got.UnattributedTotal)
	assert.Equal(t, 10, got.TransactionCount)
	require.Len(t, got.Drivers, 4)

	// conservation over attributed drivers
	assert.Equal(t, 20, got.AttributedTotal)
	assert.Equal(t, got.AttributedTotal, sum(got.BySize))
}

func TestCompareBreakdowns(t *testing.T) {
	expected := map[CylinderSize]int{"12L": 10, "35L": 4}
	actual := map[CylinderSize]int{"12L": 11, "35L": 1, "50L": 2}

	cmp := CompareBreakdowns(expected, actual, 1)
	assert.False(t, cmp.Matches)
	assert.Equal(t, []SizeDelta{
		{Size: "35L", Expected: 4, Actual: 1, Delta: -3},
		{Size: "50L", Expected: 0, Actual: 2, Delta: 2},
	}, cmp.Deltas)

	assert.True(t, CompareBreakdowns(expected, expected, 0).Matches)
	assert.True(t, CompareBreakdowns(expected, actual, 3).Matches)
}
