package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Cyvadra/tv-bots/internal/middleware"
	"github.com/Cyvadra/tv-bots/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type issuerFunc func(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error)

func (f issuerFunc) Issue(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error) {
	return f(ctx, req)
}

type processorFunc func(ctx context.Context, token string, body io.Reader) (*services.AlertResult, error)

func (f processorFunc) Process(ctx context.Context, token string, body io.Reader) (*services.AlertResult, error) {
	return f(ctx, token, body)
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGenerateWebhook(t *testing.T) {
	var got services.IssueRequest
	h := NewWebhookHandler(issuerFunc(func(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error) {
		got = req
		return &services.IssueResult{
			WebhookURL: "https://bots.example.com/processAlert/abc",
			ExpiresAt:  "2026-02-14T09:30:00.000Z",
			Token:      "abc",
		}, nil
	}))
	r := gin.New()
	r.POST("/generateWebhook", h.GenerateWebhook)

	w := serve(r, http.MethodPost, "/generateWebhook", `{"userId":"user-1","botId":"bot-1","expirationDays":7}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "https://bots.example.com/processAlert/abc", body["webhookUrl"])
	assert.Equal(t, "2026-02-14T09:30:00.000Z", body["expiresAt"])
	assert.NotContains(t, body, "Token")
	assert.Equal(t, services.IssueRequest{UserID: "user-1", BotID: "bot-1", ExpirationDays: 7}, got)
}

func TestGenerateWebhookBadRequests(t *testing.T) {
	called := false
	h := NewWebhookHandler(issuerFunc(func(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error) {
		called = true
		return nil, nil
	}))
	r := gin.New()
	r.POST("/generateWebhook", h.GenerateWebhook)

	for _, body := range []string{
		`{"botId":"bot-1"}`,
		`{"userId":"user-1"}`,
		`{"userId":"user 1","botId":"bot-1"}`,
		`{"userId":"user-1","botId":"bot-1","expirationDays":-3}`,
		`not json`,
		``,
	} {
		w := serve(r, http.MethodPost, "/generateWebhook", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.NotEmpty(t, decode(t, w)["error"], body)
	}
	assert.False(t, called)
}

func TestGenerateWebhookServerError(t *testing.T) {
	h := NewWebhookHandler(issuerFunc(func(ctx context.Context, req services.IssueRequest) (*services.IssueResult, error) {
		return nil, fmt.Errorf("failed to create webhook token: disk full")
	}))
	r := gin.New()
	r.POST("/generateWebhook", h.GenerateWebhook)

	w := serve(r, http.MethodPost, "/generateWebhook", `{"userId":"u","botId":"b"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "disk full")
}

func TestProcessAlert(t *testing.T) {
	var gotToken, gotBody string
	h := NewAlertHandler(processorFunc(func(ctx context.Context, token string, body io.Reader) (*services.AlertResult, error) {
		gotToken = token
		data, _ := io.ReadAll(body)
		gotBody = string(data)
		return &services.AlertResult{Success: true, OrderID: "TEST_1", Status: "TEST_ORDER", TestMode: true}, nil
	}))
	r := gin.New()
	r.POST("/processAlert/:token", h.ProcessAlert)

	w := serve(r, http.MethodPost, "/processAlert/AbC123", `{"side":"buy"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AbC123", gotToken)
	assert.Equal(t, `{"side":"buy"}`, gotBody)
	assert.JSONEq(t, `{"success":true,"orderId":"TEST_1","status":"TEST_ORDER","testMode":true}`, w.Body.String())
}

func TestProcessAlertErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: services.ErrInvalidToken, status: http.StatusNotFound},
		{err: fmt.Errorf("%w for bybit", services.ErrMissingCredentials), status: http.StatusBadRequest},
		{err: fmt.Errorf("%w: bad side", services.ErrInvalidRequest), status: http.StatusBadRequest},
		{err: fmt.Errorf("failed to place order: rejected"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		h := NewAlertHandler(processorFunc(func(ctx context.Context, token string, body io.Reader) (*services.AlertResult, error) {
			return nil, tt.err
		}))
		r := gin.New()
		r.POST("/processAlert/:token", h.ProcessAlert)

		w := serve(r, http.MethodPost, "/processAlert/x", `{}`)
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
		assert.Equal(t, tt.err.Error(), decode(t, w)["error"])
	}
}
