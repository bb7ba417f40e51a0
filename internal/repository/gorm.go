package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Cyvadra/tv-bots/internal/models"
	"gorm.io/gorm"
)

// TokenStore is the gorm implementation of TokenRepository
type TokenStore struct {
	db *gorm.DB
}

// NewTokenStore creates a new token store
func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create inserts a token row
func (s *TokenStore) Create(ctx context.Context, token *models.WebhookToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create webhook token: %w", err)
	}
	return nil
}

// FindValidToken looks up a token that has not expired at now
func (s *TokenStore) FindValidToken(ctx context.Context, token string, now time.Time) (*models.WebhookToken, error) {
	var row models.WebhookToken
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// DeleteExpiredBefore removes tokens that expired before cutoff
func (s *TokenStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.WebhookToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// BotStore is the gorm implementation of BotRepository
type BotStore struct {
	db *gorm.DB
}

// NewBotStore creates a new bot store
func NewBotStore(db *gorm.DB) *BotStore {
	return &BotStore{db: db}
}

// GetForUser loads a bot owned by userID
func (s *BotStore) GetForUser(ctx context.Context, botID, userID string) (*models.Bot, error) {
	var bot models.Bot
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", botID, userID).
		First(&bot).Error
	if err != nil {
		return nil, translate(err)
	}
	return &bot, nil
}

// RecordTrade updates the bot's trade counters
func (s *BotStore) RecordTrade(ctx context.Context, bot *models.Bot, at time.Time) error {
	count := bot.TradeCount + 1
	err := s.db.WithContext(ctx).
		Model(&models.Bot{}).
		Where("id = ?", bot.ID).
		Updates(map[string]interface{}{
			"trade_count":   count,
			"last_trade_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update bot %s: %w", bot.ID, err)
	}

	bot.TradeCount = count
	bot.LastTradeAt = &at
	return nil
}

// APIKeyStore is the gorm implementation of APIKeyRepository
type APIKeyStore struct {
	db *gorm.DB
}

// NewAPIKeyStore creates a new api key store
func NewAPIKeyStore(db *gorm.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// GetForUser loads the most recent credentials of userID for exchange
func (s *APIKeyStore) GetForUser(ctx context.Context, userID, exchange string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND exchange = ?", userID, exchange).
		Order("created_at DESC").
		First(&key).Error
	if err != nil {
		return nil, translate(err)
	}
	return &key, nil
}

// TradeStore is the gorm implementation of TradeRepository
type TradeStore struct {
	db *gorm.DB
}

// NewTradeStore creates a new trade store
func NewTradeStore(db *gorm.DB) *TradeStore {
	return &TradeStore{db: db}
}

// Create appends a trade record
func (s *TradeStore) Create(ctx context.Context, trade *models.Trade) error {
	if err := s.db.WithContext(ctx).Create(trade).Error; err != nil {
		return fmt.Errorf("failed to create trade record: %w", err)
	}
	return nil
}

var (
	_ TokenRepository  = (*TokenStore)(nil)
	_ BotRepository    = (*BotStore)(nil)
	_ APIKeyRepository = (*APIKeyStore)(nil)
	_ TradeRepository  = (*TradeStore)(nil)
)
