package pricing

import "time"

// Refund tiers by lead time until the show. Lower bounds are inclusive:
// exactly 4h before the show still refunds 75%.
const (
	refundTierFull    = 4 * time.Hour
	refundTierHalf    = 2 * time.Hour
	refundTierQuarter = 30 * time.Minute
)

// RefundPercent maps the lead time until the show into a refund
// percentage. Pure and deterministic.
func RefundPercent(showAt, now time.Time) int64 {
	lead := showAt.Sub(now)
	switch {
	case lead >= refundTierFull:
		return 75
	case lead >= refundTierHalf:
		return 50
	case lead >= refundTierQuarter:
		return 25
	default:
		return 0
	}
}
