package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Cyvadra/tv-bots/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// TokenRepository stores issued webhook tokens
type TokenRepository interface {
	Create(ctx context.Context, token *models.WebhookToken) error
	// FindValidToken returns ErrNotFound when the token is unknown or
	// expires_at is not after now.
	FindValidToken(ctx context.Context, token string, now time.Time) (*models.WebhookToken, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BotRepository reads bot configuration and tracks trade counters
type BotRepository interface {
	GetForUser(ctx context.Context, botID, userID string) (*models.Bot, error)
	// RecordTrade sets last_trade_at and writes trade_count+1 based on the
	// loaded bot. Concurrent alerts for one bot can lose increments.
	RecordTrade(ctx context.Context, bot *models.Bot, at time.Time) error
}

// APIKeyRepository reads exchange credentials
type APIKeyRepository interface {
	GetForUser(ctx context.Context, userID, exchange string) (*models.APIKey, error)
}

// TradeRepository appends to the trade audit log
type TradeRepository interface {
	Create(ctx context.Context, trade *models.Trade) error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
