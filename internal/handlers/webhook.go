package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Cyvadra/tv-bots/internal/services"
	"github.com/gin-gonic/gin"
)

// WebhookIssuer issues webhook tokens
type WebhookIssuer interface {
	Issue(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error)
}

// GenerateWebhookRequest is the body of POST /generateWebhook
type GenerateWebhookRequest struct {
	UserID         string `json:"userId" binding:"required,identifier"`
	BotID          string `json:"botId" binding:"required,identifier"`
	ExpirationDays int    `json:"expirationDays" binding:"gte=0"`
}

// WebhookHandler serves webhook issuing
type WebhookHandler struct {
	issuer WebhookIssuer
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(issuer WebhookIssuer) *WebhookHandler {
	return &WebhookHandler{issuer: issuer}
}

// GenerateWebhook handles POST /generateWebhook
func (h *WebhookHandler) GenerateWebhook(c *gin.Context) {
	var req GenerateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", services.ErrInvalidRequest, err))
		return
	}

	result, err := h.issuer.Issue(c.Request.Context(), services.IssueRequest{
		UserID:         req.UserID,
		BotID:          req.BotID,
		ExpirationDays: req.ExpirationDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
