package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide represents the side of an order
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of an order
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"

	// OrderStatusTest marks an order that was simulated and never sent.
	OrderStatusTest OrderStatus = "TEST_ORDER"
)

// Credentials represents the API credentials for an exchange account
type Credentials struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"-"`
}

// Settings holds the per-exchange connection settings
type Settings struct {
	MainnetURL string        `yaml:"mainnet_url"`
	TestnetURL string        `yaml:"testnet_url"`
	Category   string        `yaml:"category"`
	RecvWindow string        `yaml:"recv_window"`
	Timeout    time.Duration `yaml:"timeout"`
}

// BaseURL picks the host for the requested network.
func (s Settings) BaseURL(testnet bool) string {
	if testnet {
		return s.TestnetURL
	}
	return s.MainnetURL
}

// OrderRequest represents a request to place an order
type OrderRequest struct {
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Type        OrderType `json:"type"`
	Quantity    string    `json:"quantity"`
	Price       string    `json:"price,omitempty"` // Required for limit orders
	StopLoss    string    `json:"stop_loss,omitempty"`
	TakeProfit  string    `json:"take_profit,omitempty"`
	TimeInForce string    `json:"time_in_force,omitempty"` // GTC, IOC, FOK
}

// Order represents an order response
type Order struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Side      OrderSide   `json:"side"`
	Type      OrderType   `json:"type"`
	Quantity  string      `json:"quantity"`
	Price     string      `json:"price"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// LotSizeFilter is the exchange-reported quantity constraint for a symbol
type LotSizeFilter struct {
	Symbol  string          `json:"symbol"`
	MinQty  decimal.Decimal `json:"min_qty"`
	QtyStep decimal.Decimal `json:"qty_step"`
}
