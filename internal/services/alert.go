package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Cyvadra/tv-bots/broker"
	"github.com/Cyvadra/tv-bots/internal/logging"
	"github.com/Cyvadra/tv-bots/internal/models"
	"github.com/Cyvadra/tv-bots/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultExchange is used for bots without an exchange set
const DefaultExchange = "bybit"

// ExchangeProvider resolves an exchange adapter by name
type ExchangeProvider interface {
	GetExchange(name string) (broker.Exchange, error)
}

// TradeNotifier is told about every dispatched order
type TradeNotifier interface {
	NotifyTrade(trade *models.Trade)
}

// AlertResult is the response of a processed alert
type AlertResult struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	TestMode bool   `json:"testMode"`
}

// AlertService turns webhook alerts into exchange orders
type AlertService struct {
	tokens    repository.TokenRepository
	bots      repository.BotRepository
	keys      repository.APIKeyRepository
	trades    repository.TradeRepository
	exchanges ExchangeProvider
	notifier  TradeNotifier
	now       func() time.Time
	logger    *logrus.Entry
}

// NewAlertService creates a new alert service
func NewAlertService(
	tokens repository.TokenRepository,
	bots repository.BotRepository,
	keys repository.APIKeyRepository,
	trades repository.TradeRepository,
	exchanges ExchangeProvider,
) *AlertService {
	return &AlertService{
		tokens:    tokens,
		bots:      bots,
		keys:      keys,
		trades:    trades,
		exchanges: exchanges,
		now:       time.Now,
		logger:    logging.Component("alert"),
	}
}

// SetNotifier sets the notifier for dispatched trades
func (s *AlertService) SetNotifier(notifier TradeNotifier) {
	s.notifier = notifier
}

// resolvedOrder is an alert merged with its bot's defaults
type resolvedOrder struct {
	symbol     string
	side       broker.OrderSide
	orderType  broker.OrderType
	quantity   decimal.Decimal
	price      decimal.NullDecimal
	stopLoss   decimal.NullDecimal
	takeProfit decimal.NullDecimal
}

// Process handles one alert posted to the webhook identified by token.
// Nothing is written unless dispatch succeeds. After dispatch, audit writes
// are best effort and never change the result.
func (s *AlertService) Process(ctx context.Context, token string, body io.Reader) (*AlertResult, error) {
	log := s.logger.WithField("token", logging.MaskToken(token))

	// The token is resolved before the body is read, so an expired token is
	// rejected whatever the payload contains.
	hook, err := s.tokens.FindValidToken(ctx, token, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to resolve webhook token: %w", err)
	}
	log = log.WithFields(logrus.Fields{"user_id": hook.UserID, "bot_id": hook.BotID})

	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	bot, err := s.bots.GetForUser(ctx, hook.BotID, hook.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot %s: %w", hook.BotID, err)
	}

	exchangeName := strings.ToLower(bot.Exchange)
	if exchangeName == "" {
		exchangeName = DefaultExchange
	}

	key, err := s.keys.GetForUser(ctx, hook.UserID, exchangeName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w for %s", ErrMissingCredentials, exchangeName)
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	exchange, err := s.exchanges.GetExchange(exchangeName)
	if err != nil {
		return nil, err
	}

	order, err := resolveOrder(payload, bot)
	if err != nil {
		return nil, err
	}

	filter, err := exchange.GetLotSizeFilter(ctx, order.symbol, bot.TestMode)
	if err != nil {
		return nil, fmt.Errorf("failed to get instrument info for %s: %w", order.symbol, err)
	}

	raw := order.quantity
	order.quantity = broker.NormalizeQuantity(raw, *filter)
	// Only real dispatch needs a positive quantity.
	if !order.quantity.IsPositive() && !bot.TestMode {
		return nil, fmt.Errorf("%w: quantity resolves to zero for %s", ErrInvalidRequest, order.symbol)
	}
	log.WithFields(logrus.Fields{
		"symbol":   order.symbol,
		"raw_qty":  raw.String(),
		"qty":      order.quantity.String(),
		"min_qty":  filter.MinQty.String(),
		"qty_step": filter.QtyStep.String(),
	}).Debug("Normalized order quantity")

	req := &broker.OrderRequest{
		Symbol:     order.symbol,
		Side:       order.side,
		Type:       order.orderType,
		Quantity:   broker.FormatQuantity(order.quantity, filter.QtyStep),
		Price:      nullString(order.price),
		StopLoss:   nullString(order.stopLoss),
		TakeProfit: nullString(order.takeProfit),
	}

	var placed *broker.Order
	if bot.TestMode {
		placed = simulateOrder(req, s.now())
	} else {
		creds := &broker.Credentials{APIKey: key.APIKey, SecretKey: key.APISecret}
		placed, err = exchange.PlaceOrder(ctx, creds, req, false)
		if err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"symbol":    req.Symbol,
		"side":      req.Side,
		"type":      req.Type,
		"qty":       req.Quantity,
		"order_id":  placed.ID,
		"status":    placed.Status,
		"test_mode": bot.TestMode,
	}).Info("Order dispatched")

	s.audit(ctx, log, hook, bot, order, placed)

	return &AlertResult{
		Success:  true,
		OrderID:  placed.ID,
		Status:   string(placed.Status),
		TestMode: bot.TestMode,
	}, nil
}

// audit records the dispatched order. Failures are logged only.
func (s *AlertService) audit(ctx context.Context, log *logrus.Entry, hook *models.WebhookToken, bot *models.Bot, order *resolvedOrder, placed *broker.Order) {
	trade := &models.Trade{
		UserID:    hook.UserID,
		BotID:     bot.ID,
		Symbol:    order.symbol,
		Side:      string(order.side),
		OrderType: string(order.orderType),
		Quantity:  order.quantity,
		Price:     order.price,
		OrderID:   placed.ID,
		Status:    string(placed.Status),
		TestMode:  bot.TestMode,
	}
	if err := s.trades.Create(ctx, trade); err != nil {
		log.WithError(err).Error("Failed to write trade record")
	}

	if err := s.bots.RecordTrade(ctx, bot, s.now().UTC()); err != nil {
		log.WithError(err).Error("Failed to update bot trade counters")
	}

	if s.notifier != nil {
		s.notifier.NotifyTrade(trade)
	}
}

func decodePayload(r io.Reader) (*models.AlertPayload, error) {
	var payload models.AlertPayload
	if r == nil {
		return &payload, nil
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read alert body: %v", ErrInvalidRequest, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed alert body: %v", ErrInvalidRequest, err)
	}
	return &payload, nil
}

func resolveOrder(payload *models.AlertPayload, bot *models.Bot) (*resolvedOrder, error) {
	symbol := payload.Symbol
	if symbol == "" {
		symbol = bot.Symbol
	}
	symbol = broker.NormalizeSymbol(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: no symbol in alert or bot", ErrInvalidRequest)
	}

	sideText := payload.Side
	if sideText == "" {
		sideText = bot.DefaultSide
	}
	side, err := broker.ParseSide(sideText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	typeText := payload.OrderType
	if typeText == "" {
		typeText = bot.DefaultOrderType
	}
	orderType, err := broker.ParseOrderType(typeText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	order := &resolvedOrder{
		symbol:     symbol,
		side:       side,
		orderType:  orderType,
		quantity:   payload.Quantity.Or(bot.DefaultQuantity).Decimal,
		price:      payload.Price.Or(decimal.NullDecimal{}),
		stopLoss:   payload.StopLoss.Or(bot.DefaultStopLoss),
		takeProfit: payload.TakeProfit.Or(bot.DefaultTakeProfit),
	}
	if orderType == broker.OrderTypeLimit && (!order.price.Valid || !order.price.Decimal.IsPositive()) {
		return nil, fmt.Errorf("%w: limit orders need a positive price", ErrInvalidRequest)
	}
	return order, nil
}

// simulateOrder builds the result of a test mode dispatch. The exchange is
// never contacted.
func simulateOrder(req *broker.OrderRequest, now time.Time) *broker.Order {
	return &broker.Order{
		ID:        "TEST_" + uuid.NewString(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Status:    broker.OrderStatusTest,
		CreatedAt: now,
	}
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
