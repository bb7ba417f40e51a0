package bybit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Cyvadra/tv-bots/broker"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMainnetURL = "https://api.bybit.com"
	DefaultTestnetURL = "https://api-testnet.bybit.com"

	defaultCategory   = "linear"
	defaultRecvWindow = "5000"
	defaultTimeout    = 10 * time.Second

	instrumentsInfoPath = "/v5/market/instruments-info"
	createOrderPath     = "/v5/order/create"
)

// Client is a Bybit v5 REST client for linear perpetuals
type Client struct {
	name     string
	settings broker.Settings
	client   *resty.Client
	logger   *logrus.Entry
	now      func() time.Time
}

// NewClient creates a new Bybit client
func NewClient(settings broker.Settings) broker.Exchange {
	if settings.MainnetURL == "" {
		settings.MainnetURL = DefaultMainnetURL
	}
	if settings.TestnetURL == "" {
		settings.TestnetURL = DefaultTestnetURL
	}
	if settings.Category == "" {
		settings.Category = defaultCategory
	}
	if settings.RecvWindow == "" {
		settings.RecvWindow = defaultRecvWindow
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultTimeout
	}

	return &Client{
		name:     "bybit",
		settings: settings,
		client:   resty.New().SetTimeout(settings.Timeout),
		logger:   logrus.WithField("component", "bybit"),
		now:      time.Now,
	}
}

// Name returns the broker name
func (c *Client) Name() string {
	return c.name
}

type envelope struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
}

type instrumentsResponse struct {
	envelope
	Result struct {
		Category string           `json:"category"`
		List     []instrumentInfo `json:"list"`
	} `json:"result"`
}

type instrumentInfo struct {
	Symbol        string        `json:"symbol"`
	LotSizeFilter lotSizeFilter `json:"lotSizeFilter"`
}

// lotSizeFilter carries both the derivatives and the spot field names.
type lotSizeFilter struct {
	MinOrderQty string `json:"minOrderQty"`
	MinTrdAmt   string `json:"minTrdAmt"`
	QtyStep     string `json:"qtyStep"`
	StepSize    string `json:"stepSize"`
}

type createOrderRequest struct {
	Category    string `json:"category"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Qty         string `json:"qty"`
	Price       string `json:"price,omitempty"`
	TimeInForce string `json:"timeInForce,omitempty"`
	StopLoss    string `json:"stopLoss,omitempty"`
	TakeProfit  string `json:"takeProfit,omitempty"`
}

type createOrderResponse struct {
	envelope
	Result struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	} `json:"result"`
	Time int64 `json:"time"`
}

// GetLotSizeFilter retrieves the min order quantity and quantity step of symbol
func (c *Client) GetLotSizeFilter(ctx context.Context, symbol string, testnet bool) (*broker.LotSizeFilter, error) {
	symbol = broker.FormatSymbol(symbol, c.name)
	if symbol == "" {
		return nil, broker.ErrInvalidSymbol
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"category": c.settings.Category,
		}).
		Get(c.settings.BaseURL(testnet) + instrumentsInfoPath)
	if err != nil {
		return nil, broker.NewBrokerError(c.name, "NETWORK_ERROR", "instrument info request failed", fmt.Errorf("%w: %v", broker.ErrNetworkError, err))
	}
	if resp.IsError() {
		return nil, broker.NewBrokerError(c.name, "HTTP_"+strconv.Itoa(resp.StatusCode()), resp.String(), broker.ErrAPIError)
	}

	var out instrumentsResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, broker.NewBrokerError(c.name, "DECODE_FAILED", "invalid instrument info response", err)
	}
	if out.RetCode != 0 {
		return nil, broker.NewBrokerError(c.name, strconv.Itoa(out.RetCode), out.RetMsg, broker.ErrAPIError)
	}
	if len(out.Result.List) == 0 {
		return nil, fmt.Errorf("%w: %s", broker.ErrInvalidSymbol, symbol)
	}

	lot := out.Result.List[0].LotSizeFilter
	minQty := firstNonEmpty(lot.MinOrderQty, lot.MinTrdAmt)
	step := firstNonEmpty(lot.QtyStep, lot.StepSize)
	if minQty == "" || step == "" {
		return nil, broker.NewBrokerError(c.name, "LOT_SIZE_MISSING", "lot size filter missing for "+symbol, broker.ErrAPIError)
	}

	return broker.NewLotSizeFilter(symbol, minQty, step)
}

// PlaceOrder places a new order
func (c *Client) PlaceOrder(ctx context.Context, creds *broker.Credentials, req *broker.OrderRequest, testnet bool) (*broker.Order, error) {
	if creds == nil || creds.APIKey == "" || creds.SecretKey == "" {
		return nil, broker.NewBrokerError(c.name, "INVALID_CREDENTIALS", "API key and secret key are required", broker.ErrInvalidCredentials)
	}
	if err := broker.ValidateOrderRequest(req); err != nil {
		return nil, err
	}

	payload := createOrderRequest{
		Category:   c.settings.Category,
		Symbol:     broker.FormatSymbol(req.Symbol, c.name),
		Side:       convertToBybitSide(req.Side),
		OrderType:  convertToBybitOrderType(req.Type),
		Qty:        req.Quantity,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
	}
	if req.Type == broker.OrderTypeLimit {
		payload.Price = req.Price
		payload.TimeInForce = "GTC"
	}
	if req.TimeInForce != "" {
		payload.TimeInForce = req.TimeInForce
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	signature := Sign(creds.SecretKey, timestamp+creds.APIKey+c.settings.RecvWindow+string(body))

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-BAPI-API-KEY", creds.APIKey).
		SetHeader("X-BAPI-TIMESTAMP", timestamp).
		SetHeader("X-BAPI-RECV-WINDOW", c.settings.RecvWindow).
		SetHeader("X-BAPI-SIGN", signature).
		SetBody(body).
		Post(c.settings.BaseURL(testnet) + createOrderPath)
	if err != nil {
		return nil, broker.NewBrokerError(c.name, "NETWORK_ERROR", "order request failed", fmt.Errorf("%w: %v", broker.ErrNetworkError, err))
	}
	if resp.IsError() {
		return nil, broker.NewBrokerError(c.name, "HTTP_"+strconv.Itoa(resp.StatusCode()), resp.String(), broker.ErrAPIError)
	}

	var out createOrderResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, broker.NewBrokerError(c.name, "DECODE_FAILED", "invalid order response", err)
	}
	if out.RetCode != 0 {
		return nil, broker.NewBrokerError(c.name, strconv.Itoa(out.RetCode), out.RetMsg, broker.ErrAPIError)
	}

	c.logger.WithFields(logrus.Fields{
		"order_id": out.Result.OrderID,
		"symbol":   payload.Symbol,
		"side":     payload.Side,
		"qty":      payload.Qty,
		"testnet":  testnet,
	}).Info("Order placed")

	createdAt := c.now()
	if out.Time > 0 {
		createdAt = time.UnixMilli(out.Time)
	}

	return &broker.Order{
		ID:        out.Result.OrderID,
		Symbol:    payload.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Status:    broker.OrderStatusNew,
		CreatedAt: createdAt,
	}, nil
}

// Sign returns the hex HMAC-SHA256 of payload keyed by secret, as Bybit v5 expects
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func convertToBybitSide(side broker.OrderSide) string {
	if side == broker.OrderSideSell {
		return "Sell"
	}
	return "Buy"
}

func convertToBybitOrderType(orderType broker.OrderType) string {
	if orderType == broker.OrderTypeLimit {
		return "Limit"
	}
	return "Market"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Register the Bybit exchange
func init() {
	broker.Register("bybit", NewClient)
}
