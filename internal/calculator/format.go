package calculator

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"stockwatch/internal/model"
)

// FormatPercent renders a percentage with an explicit sign and two decimals, e.g. "+5.00%".
func FormatPercent(pct decimal.Decimal) string {
	r := pct.Round(2)
	if r.IsNegative() {
		return r.StringFixed(2) + "%"
	}
	return "+" + r.Abs().StringFixed(2) + "%"
}

// FormatDelta renders a Delta, or model.NotAvailable when it is invalid.
func FormatDelta(d model.Delta) string {
	if !d.Valid {
		return model.NotAvailable
	}
	return FormatPercent(d.Pct)
}

// FormatPrice renders a USD price such as "$1,234.50".
func FormatPrice(price decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	factor := decimal.New(1, int32(cur.Fraction))
	cents := price.Mul(factor).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
