package pricing

import (
	"sort"

	"kinogate/internal/models"
)

// Percentage rates applied per seat-category group. Tax and convenience
// fee are always computed on the pre-discount base price; the discount
// only reduces the seat subtotal.
const (
	TaxPct            = 18
	ConvenienceFeePct = 5
)

// PercentOf applies an integer percentage to an amount in cents,
// rounding half up.
func PercentOf(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}

// GroupBreakdown is the price derivation for one seat category of a booking.
type GroupBreakdown struct {
	SeatType        string `json:"seat_type"`
	Seats           int    `json:"seats"`
	BasePrice       int64  `json:"base_price"`
	DiscountAmount  int64  `json:"discount_amount"`
	DiscountedPrice int64  `json:"discounted_price"`
	Tax             int64  `json:"tax"`
	ConvenienceFee  int64  `json:"convenience_fee"`
	Total           int64  `json:"total"`
}

// Breakdown is the full price derivation for a booking.
type Breakdown struct {
	Groups      []GroupBreakdown `json:"groups"`
	TotalAmount int64            `json:"total_amount"`
}

// Calculate groups the tickets of one booking by seat category and derives
// the discount/tax/fee breakdown per group. Groups are ordered by seat
// type for deterministic output. A coupon is applied at booking time and
// is uniform across the booking's tickets.
func Calculate(tickets []models.Ticket) Breakdown {
	byType := make(map[string][]models.Ticket)
	for _, t := range tickets {
		byType[t.SeatType] = append(byType[t.SeatType], t)
	}

	seatTypes := make([]string, 0, len(byType))
	for st := range byType {
		seatTypes = append(seatTypes, st)
	}
	sort.Strings(seatTypes)

	var out Breakdown
	for _, st := range seatTypes {
		group := byType[st]

		g := GroupBreakdown{SeatType: st, Seats: len(group)}
		var discountPct int64
		for _, t := range group {
			g.BasePrice += t.Price
			if t.Coupon != nil {
				discountPct = t.Coupon.DiscountPct
			}
		}

		g.DiscountAmount = PercentOf(g.BasePrice, discountPct)
		g.DiscountedPrice = g.BasePrice - g.DiscountAmount
		g.Tax = PercentOf(g.BasePrice, TaxPct)
		g.ConvenienceFee = PercentOf(g.BasePrice, ConvenienceFeePct)
		g.Total = g.DiscountedPrice + g.Tax + g.ConvenienceFee

		out.Groups = append(out.Groups, g)
		out.TotalAmount += g.Total
	}
	return out
}
