package services

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Cyvadra/tv-bots/internal/config"
	"github.com/Cyvadra/tv-bots/internal/logging"
	"github.com/Cyvadra/tv-bots/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const telegramAPIBase = "https://api.telegram.org"

// NotifyService forwards dispatched trades to downstream endpoints
type NotifyService struct {
	client    *resty.Client
	endpoints []config.EndpointConfig
	logger    *logrus.Entry
	wg        sync.WaitGroup
}

// NewNotifyService creates a new notify service for the active endpoints
func NewNotifyService(endpoints []config.EndpointConfig) *NotifyService {
	return &NotifyService{
		client:    resty.New().SetTimeout(10 * time.Second),
		endpoints: endpoints,
		logger:    logging.Component("notify"),
	}
}

// NotifyTrade sends trade to every active endpoint, each in its own goroutine
func (s *NotifyService) NotifyTrade(trade *models.Trade) {
	for _, endpoint := range s.endpoints {
		if !endpoint.IsActive {
			continue
		}

		s.wg.Add(1)
		go func(ep config.EndpointConfig) {
			defer s.wg.Done()
			if err := s.send(trade, ep); err != nil {
				s.logger.WithFields(logrus.Fields{
					"endpoint": ep.Name,
					"type":     ep.Type,
				}).WithError(err).Warn("Failed to forward trade notification")
			}
		}(endpoint)
	}
}

// Wait blocks until in-flight notifications finish
func (s *NotifyService) Wait() {
	s.wg.Wait()
}

func (s *NotifyService) send(trade *models.Trade, endpoint config.EndpointConfig) error {
	switch endpoint.Type {
	case "telegram":
		return s.sendTelegram(trade, endpoint)
	case "wechat", "dingtalk":
		return s.sendText(trade, endpoint)
	case "webhook":
		return s.sendWebhook(trade, endpoint)
	default:
		return fmt.Errorf("unsupported endpoint type: %s", endpoint.Type)
	}
}

// sendTelegram posts to the bot API. endpoint.URL overrides the API host.
func (s *NotifyService) sendTelegram(trade *models.Trade, endpoint config.EndpointConfig) error {
	base := strings.TrimRight(endpoint.URL, "/")
	if base == "" {
		base = telegramAPIBase
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"chat_id":    endpoint.ChatID,
			"text":       formatTelegramMessage(trade),
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", base, endpoint.Token))
	if err != nil {
		return fmt.Errorf("telegram API request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// sendText posts a plain text robot message, the format WeChat Work and
// DingTalk share.
func (s *NotifyService) sendText(trade *models.Trade, endpoint config.EndpointConfig) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"msgtype": "text",
			"text": map[string]string{
				"content": formatTextMessage(trade),
			},
		}).
		Post(endpoint.URL)
	if err != nil {
		return fmt.Errorf("%s API request failed: %w", endpoint.Type, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%s API returned status %d: %s", endpoint.Type, resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *NotifyService) sendWebhook(trade *models.Trade, endpoint config.EndpointConfig) error {
	req := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(trade)
	if endpoint.Token != "" {
		req.SetAuthToken(endpoint.Token)
	}

	resp, err := req.Post(endpoint.URL)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func formatTelegramMessage(trade *models.Trade) string {
	var sb strings.Builder
	if trade.TestMode {
		sb.WriteString("🧪 <b>Test Order</b>\n\n")
	} else {
		sb.WriteString("🚨 <b>Order Placed</b>\n\n")
	}
	sb.WriteString(fmt.Sprintf("💱 <b>Symbol:</b> %s\n", html.EscapeString(trade.Symbol)))
	sb.WriteString(fmt.Sprintf("⚡ <b>Side:</b> %s %s\n", html.EscapeString(trade.Side), html.EscapeString(trade.OrderType)))
	sb.WriteString(fmt.Sprintf("📈 <b>Quantity:</b> %s\n", trade.Quantity.String()))
	if trade.Price.Valid {
		sb.WriteString(fmt.Sprintf("💰 <b>Price:</b> %s\n", trade.Price.Decimal.String()))
	}
	sb.WriteString(fmt.Sprintf("🆔 <b>Order:</b> %s (%s)", html.EscapeString(trade.OrderID), html.EscapeString(trade.Status)))
	return sb.String()
}

func formatTextMessage(trade *models.Trade) string {
	var sb strings.Builder
	if trade.TestMode {
		sb.WriteString("[TEST] ")
	}
	sb.WriteString(fmt.Sprintf("%s %s %s qty=%s", trade.Symbol, trade.Side, trade.OrderType, trade.Quantity.String()))
	if trade.Price.Valid {
		sb.WriteString(fmt.Sprintf(" price=%s", trade.Price.Decimal.String()))
	}
	sb.WriteString(fmt.Sprintf(" order=%s status=%s", trade.OrderID, trade.Status))
	return sb.String()
}
