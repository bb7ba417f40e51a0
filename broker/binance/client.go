package binance

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Cyvadra/tv-bots/broker"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMainnetURL = "https://fapi.binance.com"
	DefaultTestnetURL = "https://testnet.binancefuture.com"
)

// Client represents a Binance USDⓈ-M futures exchange
type Client struct {
	name     string
	settings broker.Settings
	logger   *logrus.Entry
}

// NewClient creates a new Binance futures client
func NewClient(settings broker.Settings) broker.Exchange {
	if settings.MainnetURL == "" {
		settings.MainnetURL = DefaultMainnetURL
	}
	if settings.TestnetURL == "" {
		settings.TestnetURL = DefaultTestnetURL
	}
	return &Client{
		name:     "binance",
		settings: settings,
		logger:   logrus.WithField("component", "binance"),
	}
}

// Name returns the broker name
func (c *Client) Name() string {
	return c.name
}

// futuresClient builds a go-binance client bound to the requested network.
func (c *Client) futuresClient(creds *broker.Credentials, testnet bool) *futures.Client {
	var apiKey, secretKey string
	if creds != nil {
		apiKey, secretKey = creds.APIKey, creds.SecretKey
	}
	client := futures.NewClient(apiKey, secretKey)
	client.BaseURL = c.settings.BaseURL(testnet)
	if c.settings.Timeout > 0 {
		client.HTTPClient = &http.Client{Timeout: c.settings.Timeout}
	}
	return client
}

// GetLotSizeFilter retrieves the LOT_SIZE filter of symbol
func (c *Client) GetLotSizeFilter(ctx context.Context, symbol string, testnet bool) (*broker.LotSizeFilter, error) {
	symbol = broker.FormatSymbol(symbol, c.name)

	exchangeInfo, err := c.futuresClient(nil, testnet).NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, broker.NewBrokerError(c.name, "EXCHANGE_INFO_FAILED", "Failed to get exchange info", err)
	}

	for i := range exchangeInfo.Symbols {
		s := &exchangeInfo.Symbols[i]
		if s.Symbol != symbol {
			continue
		}
		minQty, stepSize := lotSizeFromFilters(s.Filters)
		if minQty == "" || stepSize == "" {
			return nil, broker.NewBrokerError(c.name, "LOT_SIZE_MISSING", "lot size filter missing for "+symbol, broker.ErrAPIError)
		}
		return broker.NewLotSizeFilter(symbol, minQty, stepSize)
	}

	return nil, broker.ErrInvalidSymbol
}

// PlaceOrder places a new order
func (c *Client) PlaceOrder(ctx context.Context, creds *broker.Credentials, req *broker.OrderRequest, testnet bool) (*broker.Order, error) {
	if creds == nil || creds.APIKey == "" || creds.SecretKey == "" {
		return nil, broker.NewBrokerError(c.name, "INVALID_CREDENTIALS", "API key and secret key are required", broker.ErrInvalidCredentials)
	}
	if err := broker.ValidateOrderRequest(req); err != nil {
		return nil, err
	}

	symbol := broker.FormatSymbol(req.Symbol, c.name)
	service := c.futuresClient(creds, testnet).NewCreateOrderService().
		Symbol(symbol).
		Side(convertToBinanceSide(req.Side)).
		Type(convertToBinanceOrderType(req.Type)).
		Quantity(req.Quantity)

	// Set price for limit orders
	if req.Type == broker.OrderTypeLimit {
		service = service.Price(req.Price)
		if req.TimeInForce != "" {
			service = service.TimeInForce(futures.TimeInForceType(req.TimeInForce))
		} else {
			service = service.TimeInForce(futures.TimeInForceTypeGTC)
		}
	}

	if req.StopLoss != "" || req.TakeProfit != "" {
		c.logger.WithFields(logrus.Fields{
			"symbol":      symbol,
			"stop_loss":   req.StopLoss,
			"take_profit": req.TakeProfit,
		}).Warn("Stop loss and take profit are not attached on binance orders")
	}

	order, err := service.Do(ctx)
	if err != nil {
		return nil, broker.NewBrokerError(c.name, "ORDER_FAILED", "Failed to place order", err)
	}

	return convertBinanceOrder(order, req), nil
}

// Helper functions

func lotSizeFromFilters(filters []map[string]interface{}) (minQty, stepSize string) {
	for _, filter := range filters {
		if filter["filterType"] != "LOT_SIZE" {
			continue
		}
		if v, ok := filter["minQty"].(string); ok {
			minQty = v
		}
		if v, ok := filter["stepSize"].(string); ok {
			stepSize = v
		}
	}
	return minQty, stepSize
}

func convertToBinanceSide(side broker.OrderSide) futures.SideType {
	switch side {
	case broker.OrderSideSell:
		return futures.SideTypeSell
	default:
		return futures.SideTypeBuy
	}
}

func convertToBinanceOrderType(orderType broker.OrderType) futures.OrderType {
	switch orderType {
	case broker.OrderTypeLimit:
		return futures.OrderTypeLimit
	default:
		return futures.OrderTypeMarket
	}
}

func convertBinanceOrder(order *futures.CreateOrderResponse, req *broker.OrderRequest) *broker.Order {
	qty := order.OrigQuantity
	if qty == "" {
		qty = req.Quantity
	}
	return &broker.Order{
		ID:        strconv.FormatInt(order.OrderID, 10),
		Symbol:    order.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  qty,
		Price:     order.Price,
		Status:    convertBinanceOrderStatus(order.Status),
		CreatedAt: time.UnixMilli(order.UpdateTime),
	}
}

func convertBinanceOrderStatus(status futures.OrderStatusType) broker.OrderStatus {
	switch status {
	case futures.OrderStatusTypeNew:
		return broker.OrderStatusNew
	case futures.OrderStatusTypePartiallyFilled:
		return broker.OrderStatusPartiallyFilled
	case futures.OrderStatusTypeFilled:
		return broker.OrderStatusFilled
	case futures.OrderStatusTypeCanceled:
		return broker.OrderStatusCanceled
	case futures.OrderStatusTypeRejected:
		return broker.OrderStatusRejected
	case futures.OrderStatusTypeExpired:
		return broker.OrderStatusExpired
	default:
		return broker.OrderStatusNew
	}
}

// Register the Binance exchange
func init() {
	broker.Register("binance", NewClient)
}
