package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// AlertPayload is the body TradingView posts to a webhook. Every field is
// optional and falls back to the bot's defaults.
type AlertPayload struct {
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	OrderType  string    `json:"orderType"`
	Quantity   FlexFloat `json:"quantity"`
	Price      FlexFloat `json:"price"`
	StopLoss   FlexFloat `json:"stopLoss"`
	TakeProfit FlexFloat `json:"takeProfit"`
}

// FlexFloat accepts a JSON number or a numeric string. TradingView
// placeholders such as {{close}} are often sent quoted.
type FlexFloat struct {
	Value decimal.Decimal
	Valid bool
}

// NewFlexFloat returns a set FlexFloat
func NewFlexFloat(v string) FlexFloat {
	return FlexFloat{Value: decimal.RequireFromString(v), Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler. Values are parsed as decimal
// text; NaN and infinities are rejected.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*f = FlexFloat{}
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			*f = FlexFloat{}
			return nil
		}
		raw = strings.TrimSpace(v)
	case json.Number:
	default:
		return fmt.Errorf("expected a number, got %s", string(data))
	}

	text, err := cast.ToStringE(raw)
	if err != nil {
		return fmt.Errorf("expected a number: %w", err)
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", text)
	}
	*f = FlexFloat{Value: value, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(f.Value.String()), nil
}

// Or returns the value when set, otherwise fallback
func (f FlexFloat) Or(fallback decimal.NullDecimal) decimal.NullDecimal {
	if f.Valid {
		return decimal.NewNullDecimal(f.Value)
	}
	return fallback
}
