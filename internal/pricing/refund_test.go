package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefundPercentTiers(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		lead time.Duration
		want int64
	}{
		{"five hours", 5 * time.Hour, 75},
		{"exactly four hours", 4 * time.Hour, 75},
		{"just under four hours", 4*time.Hour - time.Second, 50},
		{"three hours", 3 * time.Hour, 50},
		{"exactly two hours", 2 * time.Hour, 50},
		{"just under two hours", 2*time.Hour - time.Second, 25},
		{"one hour", time.Hour, 25},
		{"exactly thirty minutes", 30 * time.Minute, 25},
		{"just under thirty minutes", 30*time.Minute - time.Second, 0},
		{"ten minutes", 10 * time.Minute, 0},
		{"show already started", -time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RefundPercent(now.Add(tt.lead), now))
		})
	}
}
