package routes

import (
	"net/http"

	"github.com/Cyvadra/tv-bots/internal/handlers"
	"github.com/Cyvadra/tv-bots/internal/logging"
	"github.com/Cyvadra/tv-bots/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers the router serves
type Handlers struct {
	Webhook *handlers.WebhookHandler
	Alert   *handlers.AlertHandler
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(h Handlers, alertPrefix string) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID(), middleware.CORS(), logging.GinLogger(), gin.Recovery())

	SetupRoutes(r, h, alertPrefix)
	return r, nil
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, h Handlers, alertPrefix string) {
	if alertPrefix == "" {
		alertPrefix = "/processAlert"
	}

	r.POST("/generateWebhook", h.Webhook.GenerateWebhook)
	r.POST(alertPrefix+"/:token", h.Alert.ProcessAlert)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "tv-bots",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
