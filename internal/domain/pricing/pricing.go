package pricing

import (
	"time"

	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
)

// PriceBreakdown is a flat per-day quote: no proration, no weekend or holiday adjustment.
type PriceBreakdown struct {
	Days  int
	Daily money.Money
	Total money.Money
}

// Quote prices the inclusive range [start, end] at rate per day. A missing
// endpoint or a zero rate yields a zero total.
func Quote(start, end time.Time, rate money.Money) PriceBreakdown {
	zero := money.Money{Currency: rate.Currency}
	if start.IsZero() || end.IsZero() || rate.Amount <= 0 {
		return PriceBreakdown{Daily: rate, Total: zero}
	}
	days := daterange.Ordered(start, end).Len()
	return PriceBreakdown{
		Days:  days,
		Daily: rate,
		Total: rate.Multiply(int64(days)),
	}
}

func TotalCost(start, end time.Time, rate money.Money) money.Money {
	return Quote(start, end, rate).Total
}
