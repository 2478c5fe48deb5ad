package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kinogate/internal/models"
)

func TestPercentOfRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(750), PercentOf(1000, 75))
	assert.Equal(t, int64(1), PercentOf(1, 50))  // 0.5 rounds up
	assert.Equal(t, int64(0), PercentOf(1, 25))  // 0.25 rounds down
	assert.Equal(t, int64(0), PercentOf(1000, 0))
}

func TestCalculateSingleGroup(t *testing.T) {
	tickets := []models.Ticket{
		{SeatType: "GOLD", Price: 30000},
		{SeatType: "GOLD", Price: 30000},
	}

	b := Calculate(tickets)
	assert.Len(t, b.Groups, 1)

	g := b.Groups[0]
	assert.Equal(t, "GOLD", g.SeatType)
	assert.Equal(t, 2, g.Seats)
	assert.Equal(t, int64(60000), g.BasePrice)
	assert.Equal(t, int64(0), g.DiscountAmount)
	assert.Equal(t, int64(60000), g.DiscountedPrice)
	assert.Equal(t, int64(10800), g.Tax)           // 18% of base
	assert.Equal(t, int64(3000), g.ConvenienceFee) // 5% of base
	assert.Equal(t, int64(73800), g.Total)
	assert.Equal(t, int64(73800), b.TotalAmount)
}

func TestCalculateCouponOnBasePrice(t *testing.T) {
	coupon := &models.Coupon{Name: "OPENING", Code: "OPEN10", DiscountPct: 10}
	tickets := []models.Ticket{
		{SeatType: "SILVER", Price: 20000, Coupon: coupon},
		{SeatType: "SILVER", Price: 20000, Coupon: coupon},
	}

	b := Calculate(tickets)
	g := b.Groups[0]

	assert.Equal(t, int64(40000), g.BasePrice)
	assert.Equal(t, int64(4000), g.DiscountAmount)
	assert.Equal(t, int64(36000), g.DiscountedPrice)
	// Tax and fee stay on the pre-discount base.
	assert.Equal(t, int64(7200), g.Tax)
	assert.Equal(t, int64(2000), g.ConvenienceFee)
	assert.Equal(t, int64(45200), g.Total)
}

func TestCalculateGroupsBySeatType(t *testing.T) {
	tickets := []models.Ticket{
		{SeatType: "SILVER", Price: 20000},
		{SeatType: "GOLD", Price: 30000},
		{SeatType: "SILVER", Price: 20000},
	}

	b := Calculate(tickets)
	assert.Len(t, b.Groups, 2)
	// Groups are sorted by seat type.
	assert.Equal(t, "GOLD", b.Groups[0].SeatType)
	assert.Equal(t, 1, b.Groups[0].Seats)
	assert.Equal(t, "SILVER", b.Groups[1].SeatType)
	assert.Equal(t, 2, b.Groups[1].Seats)
	assert.Equal(t, b.Groups[0].Total+b.Groups[1].Total, b.TotalAmount)
}

func TestCalculateEmpty(t *testing.T) {
	b := Calculate(nil)
	assert.Empty(t, b.Groups)
	assert.Equal(t, int64(0), b.TotalAmount)
}
