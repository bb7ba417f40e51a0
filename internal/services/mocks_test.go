package services

import (
	"context"
	"time"

	"github.com/Cyvadra/tv-bots/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) Create(ctx context.Context, token *models.WebhookToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepo) FindValidToken(ctx context.Context, token string, now time.Time) (*models.WebhookToken, error) {
	args := m.Called(ctx, token, now)
	if row, ok := args.Get(0).(*models.WebhookToken); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockBotRepo struct {
	mock.Mock
}

func (m *mockBotRepo) GetForUser(ctx context.Context, botID, userID string) (*models.Bot, error) {
	args := m.Called(ctx, botID, userID)
	if bot, ok := args.Get(0).(*models.Bot); ok {
		return bot, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBotRepo) RecordTrade(ctx context.Context, bot *models.Bot, at time.Time) error {
	return m.Called(ctx, bot, at).Error(0)
}

type mockAPIKeyRepo struct {
	mock.Mock
}

func (m *mockAPIKeyRepo) GetForUser(ctx context.Context, userID, exchange string) (*models.APIKey, error) {
	args := m.Called(ctx, userID, exchange)
	if key, ok := args.Get(0).(*models.APIKey); ok {
		return key, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTradeRepo struct {
	mock.Mock
}

func (m *mockTradeRepo) Create(ctx context.Context, trade *models.Trade) error {
	return m.Called(ctx, trade).Error(0)
}

type recordingNotifier struct {
	trades []*models.Trade
}

func (n *recordingNotifier) NotifyTrade(trade *models.Trade) {
	n.trades = append(n.trades, trade)
}
