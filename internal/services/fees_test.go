// internal/services/fees_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name       string
		totalCents int64
		feePercent float64
		wantFee    int64
		wantShare  int64
	}{
		{"even split", 10000, 10, 1000, 9000},
		{"rounds half up", 105, 10, 11, 94},
		{"rounds down below half", 104, 10, 10, 94},
		{"single cent", 1, 10, 0, 1},
		{"nine cents", 9, 10, 1, 8},
		{"zero total", 0, 10, 0, 0},
		{"zero percent", 10000, 0, 0, 10000},
		{"full percent", 10000, 100, 10000, 0},
		{"large amount", 99999999, 10, 10000000, 89999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, share := ComputeSplit(tt.totalCents, tt.feePercent)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantShare, share)
			// No fractional cent may appear or vanish.
			assert.Equal(t, tt.totalCents, fee+share)
		})
	}
}

func TestComputeSplitAlwaysSumsToTotal(t *testing.T) {
	for total := int64(0); total <= 1000; total++ {
		fee, share := ComputeSplit(total, 10)
		assert.Equal(t, total, fee+share, "total %d", total)
		assert.GreaterOrEqual(t, fee, int64(0))
		assert.GreaterOrEqual(t, share, int64(0))
	}
}
