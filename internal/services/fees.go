// internal/services/fees.go
package services

import "math"

// ComputeSplit divides a purchase total (in minor currency units) between the
// platform fee and the architect share. The fee is rounded half-up from the
// configured percentage; the share is the remainder, so the two always sum
// back to the exact total with no fractional cent lost either way.
func ComputeSplit(totalCents int64, feePercent float64) (feeCents, shareCents int64) {
	feeCents = int64(math.Round(float64(totalCents) * feePercent / 100))
	if feeCents < 0 {
		feeCents = 0
	}
	if feeCents > totalCents {
		feeCents = totalCents
	}
	shareCents = totalCents - feeCents
	return feeCents, shareCents
}
