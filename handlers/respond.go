package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"nexus-bakery-api/middleware"
	"nexus-bakery-api/service"
	"nexus-bakery-api/statemachine"

	"github.com/gin-gonic/gin"
)

// respondError maps workflow errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var te *statemachine.TransitionError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &te):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_state":     te.From,
			"reason":            te.Error(),
			"valid_next_states": te.Valid,
		})
	case service.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTransport):
		slog.Error("storage failure", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable, try again"})
	default:
		slog.Error("unhandled error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// actor builds the service actor from the authenticated caller
func actor(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}
