package handlers

import (
	"errors"
	"net/http"

	"github.com/Cyvadra/tv-bots/internal/services"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidRequest), errors.Is(err, services.ErrMissingCredentials):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
