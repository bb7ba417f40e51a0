package broker

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatSymbol formats a symbol according to exchange requirements
func FormatSymbol(symbol string, exchange string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	switch exchange {
	case "bybit", "binance":
		// Linear perpetuals use BTCUSDT format
		return NormalizeSymbol(symbol)
	default:
		return symbol
	}
}

// NormalizeSymbol normalizes symbol format (removes common variations)
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	symbol = strings.ReplaceAll(symbol, "-", "")
	symbol = strings.ReplaceAll(symbol, "_", "")
	symbol = strings.ReplaceAll(symbol, "/", "")
	symbol = strings.TrimSuffix(symbol, ".P")
	return symbol
}

// ParseSide maps the free-form side of an alert onto an order side.
func ParseSide(side string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "buy", "long":
		return OrderSideBuy, nil
	case "sell", "short":
		return OrderSideSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderSide, side)
	}
}

// ParseOrderType maps the free-form order type of an alert onto an order type.
// An empty value means market.
func ParseOrderType(orderType string) (OrderType, error) {
	switch strings.ToLower(strings.TrimSpace(orderType)) {
	case "", "market":
		return OrderTypeMarket, nil
	case "limit":
		return OrderTypeLimit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderType, orderType)
	}
}

// ParseQuantity parses a quantity string
func ParseQuantity(quantity string) (decimal.Decimal, error) {
	if quantity == "" {
		return decimal.Zero, ErrInvalidQuantity
	}

	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidQuantity, quantity)
	}

	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: quantity must be positive", ErrInvalidQuantity)
	}

	return qty, nil
}

// ParsePrice parses a price string
func ParsePrice(price string) (decimal.Decimal, error) {
	if price == "" {
		return decimal.Zero, ErrInvalidPrice
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}

	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", ErrInvalidPrice)
	}

	return p, nil
}

// ValidateOrderRequest validates an order request
func ValidateOrderRequest(req *OrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}

	if req.Symbol == "" {
		return ErrInvalidSymbol
	}

	if req.Side != OrderSideBuy && req.Side != OrderSideSell {
		return ErrInvalidOrderSide
	}

	if req.Type != OrderTypeMarket && req.Type != OrderTypeLimit {
		return ErrInvalidOrderType
	}

	if _, err := ParseQuantity(req.Quantity); err != nil {
		return err
	}

	if req.Type == OrderTypeLimit {
		if req.Price == "" {
			return fmt.Errorf("%w: price required for limit orders", ErrInvalidPrice)
		}
		if _, err := ParsePrice(req.Price); err != nil {
			return err
		}
	}

	return nil
}
