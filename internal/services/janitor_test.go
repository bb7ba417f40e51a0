package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Cyvadra/tv-bots/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestJanitorRunOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	tokens := &mockTokenRepo{}
	tokens.On("DeleteExpiredBefore", mock.Anything, now.AddDate(0, 0, -7)).Return(int64(4), nil).Once()

	j := NewJanitor(config.JanitorConfig{Schedule: "0 0 3 * * *", RetentionDays: 7}, tokens)
	j.now = func() time.Time { return now }

	deleted, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	tokens.AssertExpectations(t)
}

func TestJanitorRunOnceError(t *testing.T) {
	tokens := &mockTokenRepo{}
	tokens.On("DeleteExpiredBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("locked")).Once()

	j := NewJanitor(config.JanitorConfig{Schedule: "@daily", RetentionDays: 1}, tokens)
	_, err := j.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestJanitorStart(t *testing.T) {
	tokens := &mockTokenRepo{}

	j := NewJanitor(config.JanitorConfig{Schedule: "not a schedule", RetentionDays: 7}, tokens)
	assert.Error(t, j.Start())

	j = NewJanitor(config.JanitorConfig{Schedule: "0 0 3 * * *", RetentionDays: 7}, tokens)
	require.NoError(t, j.Start())
	j.Stop()
}
