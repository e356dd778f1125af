package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"restropos_backend/internal/services"
	"restropos_backend/pkg/utils"
)

// actorFromContext builds the acting staff identity from what the auth
// middleware stored on the request context.
func actorFromContext(c *gin.Context) services.Actor {
	actor := services.Actor{}
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int64); ok {
			actor.ID = id
		}
	}
	if v, ok := c.Get("userName"); ok {
		if name, ok := v.(string); ok {
			actor.Name = name
		}
	}
	if v, ok := c.Get("userRole"); ok {
		if role, ok := v.(string); ok {
			actor.Role = role
		}
	}
	return actor
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" parameter.", err.Error()))
		return 0, false
	}
	return id, true
}

// respondServiceError maps the service error taxonomy onto HTTP responses.
// Validation and transition failures carry the service message; store
// failures do not leak internals.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrStaleState):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeStaleState, err.Error(), "Re-read the record and retry."))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or PIN.", ""))
	case errors.Is(err, services.ErrStoreUnavailable):
		utils.LogError(err, "backing store failure")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "The data store is temporarily unavailable. Safe to retry.", ""))
	default:
		utils.LogError(err, "unhandled service error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error.", ""))
	}
}
