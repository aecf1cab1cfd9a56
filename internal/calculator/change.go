package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"stockwatch/internal/model"
)

// ErrNonPositiveBase is returned when the comparison price is zero or negative.
var ErrNonPositiveBase = errors.New("base price must be positive")

var hundred = decimal.NewFromInt(100)

// PercentChange returns (current - past) / past * 100.
func PercentChange(current, past decimal.Decimal) (decimal.Decimal, error) {
	if !past.IsPositive() {
		return decimal.Zero, ErrNonPositiveBase
	}
	return current.Sub(past).Div(past).Mul(hundred), nil
}

// Change wraps PercentChange into a Delta; an unusable base yields an invalid Delta.
func Change(current, past decimal.Decimal) model.Delta {
	pct, err := PercentChange(current, past)
	if err != nil {
		return model.Delta{}
	}
	return model.Delta{Pct: pct, Valid: true}
}

// LookbackDeltas computes the change for every lookback, in order. Lookbacks
// without a past price in the observation are not available.
func LookbackDeltas(obs *model.PriceObservation, lookbacks []model.Lookback) []model.LookbackDelta {
	out := make([]model.LookbackDelta, 0, len(lookbacks))
	for _, lb := range lookbacks {
		ld := model.LookbackDelta{Label: lb.Label}
		if past, ok := obs.History[lb.Label]; ok {
			ld.Delta = Change(obs.Current, past)
		}
		out = append(out, ld)
	}
	return out
}
