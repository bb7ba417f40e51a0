package broker

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NewLotSizeFilter parses the exchange's textual min quantity and step.
func NewLotSizeFilter(symbol, minQty, qtyStep string) (*LotSizeFilter, error) {
	minimum, err := decimal.NewFromString(minQty)
	if err != nil {
		return nil, fmt.Errorf("invalid min order qty %q: %w", minQty, err)
	}
	step, err := decimal.NewFromString(qtyStep)
	if err != nil {
		return nil, fmt.Errorf("invalid qty step %q: %w", qtyStep, err)
	}
	return &LotSizeFilter{Symbol: symbol, MinQty: minimum, QtyStep: step}, nil
}

// StepPrecision returns the number of decimal places written in step,
// ignoring trailing zeros: 0.001 -> 3, 0.010 -> 2, 1 -> 0.
func StepPrecision(step decimal.Decimal) int32 {
	s := step.String()
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return int32(len(s) - idx - 1)
}

// NormalizeQuantity rounds raw down to an exchange-compliant quantity.
//
// Quantities below the minimum are raised to it. Otherwise raw is floored to
// a multiple of the step and raised to the minimum again if flooring dropped
// it below. The result is rounded to the step's own precision. A non-positive
// step only applies the minimum.
func NormalizeQuantity(raw decimal.Decimal, f LotSizeFilter) decimal.Decimal {
	step := f.QtyStep
	minimum := f.MinQty

	var qty decimal.Decimal
	if raw.LessThan(minimum) {
		qty = minimum
	} else if step.IsPositive() {
		qty = raw.Div(step).Floor().Mul(step)
		if qty.LessThan(minimum) {
			qty = minimum
		}
	} else {
		qty = raw
	}

	if step.IsPositive() {
		qty = qty.Round(StepPrecision(step))
	}
	return qty
}

// FormatQuantity renders a normalized quantity with exactly the step's
// precision, the way exchanges expect it on the wire.
func FormatQuantity(qty decimal.Decimal, step decimal.Decimal) string {
	if !step.IsPositive() {
		return qty.String()
	}
	return qty.StringFixed(StepPrecision(step))
}
