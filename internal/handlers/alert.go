package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/Cyvadra/tv-bots/internal/services"
	"github.com/gin-gonic/gin"
)

// MaxAlertBodyBytes caps the size of an alert body
const MaxAlertBodyBytes = 64 << 10

// AlertProcessor turns an alert into an order
type AlertProcessor interface {
	Process(ctx context.Context, token string, body io.Reader) (*services.AlertResult, error)
}

// AlertHandler serves TradingView alert webhooks
type AlertHandler struct {
	processor AlertProcessor
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(processor AlertProcessor) *AlertHandler {
	return &AlertHandler{processor: processor}
}

// ProcessAlert handles POST /processAlert/:token. The body is handed over
// unread; the token is checked first.
func (h *AlertHandler) ProcessAlert(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxAlertBodyBytes)

	result, err := h.processor.Process(c.Request.Context(), c.Param("token"), body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
