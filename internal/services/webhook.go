package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Cyvadra/tv-bots/internal/config"
	"github.com/Cyvadra/tv-bots/internal/logging"
	"github.com/Cyvadra/tv-bots/internal/models"
	"github.com/Cyvadra/tv-bots/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	// TokenLength is the number of characters in an issued token
	TokenLength = 32

	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// ExpiresAtLayout renders timestamps as ISO-8601 UTC with milliseconds
	ExpiresAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

// IssueRequest is the input of WebhookService.Issue
type IssueRequest struct {
	UserID         string
	BotID          string
	ExpirationDays int // 0 selects the configured default
}

// IssueResult is the output of WebhookService.Issue
type IssueResult struct {
	WebhookURL string `json:"webhookUrl"`
	ExpiresAt  string `json:"expiresAt"`
	Token      string `json:"-"`
}

// WebhookService issues webhook tokens
type WebhookService struct {
	tokens    repository.TokenRepository
	publicURL string
	config    config.WebhookConfig
	random    io.Reader
	now       func() time.Time
	logger    *logrus.Entry
}

// NewWebhookService creates a new webhook service
func NewWebhookService(cfg *config.Config, tokens repository.TokenRepository) *WebhookService {
	return &WebhookService{
		tokens:    tokens,
		publicURL: cfg.Server.PublicURL,
		config:    cfg.Webhook,
		random:    rand.Reader,
		now:       time.Now,
		logger:    logging.Component("webhook"),
	}
}

// Issue generates a token for the (user, bot) pair and persists it. Tokens
// are not checked for collisions.
func (s *WebhookService) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.BotID = strings.TrimSpace(req.BotID)
	if req.UserID == "" || req.BotID == "" {
		return nil, fmt.Errorf("%w: userId and botId are required", ErrInvalidRequest)
	}
	if req.ExpirationDays < 0 {
		return nil, fmt.Errorf("%w: expirationDays must not be negative", ErrInvalidRequest)
	}
	if s.publicURL == "" {
		return nil, fmt.Errorf("public url is not configured")
	}

	days := req.ExpirationDays
	if days == 0 {
		days = s.config.DefaultExpirationDays
	}

	token, err := GenerateToken(s.random, TokenLength)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := &models.WebhookToken{
		Token:     token,
		UserID:    req.UserID,
		BotID:     req.BotID,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, days),
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": req.UserID,
		"bot_id":  req.BotID,
		"token":   logging.MaskToken(token),
		"days":    days,
	}).Info("Issued webhook token")

	return &IssueResult{
		WebhookURL: s.publicURL + s.config.PathPrefix + "/" + token,
		ExpiresAt:  row.ExpiresAt.Format(ExpiresAtLayout),
		Token:      token,
	}, nil
}

// GenerateToken draws n characters from [A-Za-z0-9]. Bytes at or above the
// largest multiple of the alphabet size are discarded so every character is
// equally likely.
func GenerateToken(random io.Reader, n int) (string, error) {
	const limit = 256 - 256%len(tokenAlphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
