package handlers

import (
	"errors"
	"net/http"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/gin-gonic/gin"
)

// StatusFor maps a service error to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDispatchFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, domain.ErrOTPIncorrect):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountUnverified), errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOTPMaxAttempts), errors.Is(err, domain.ErrOTPResendLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Server-side failures are logged and
// replaced with a generic message.
func respondError(c *gin.Context, log logging.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = "Internal server error"
	case http.StatusBadGateway:
		log.Warn(c.Request.Context(), "message dispatch failed", "path", c.FullPath(), "error", err)
		msg = "Failed to send message"
	}
	c.JSON(status, gin.H{"error": msg})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
