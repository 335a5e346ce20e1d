package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymtrack/internal/apperr"
	"gymtrack/internal/logger"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Fail maps core error kinds to HTTP statuses. Anything outside the
// taxonomy is an infrastructure failure and surfaces as a 500.
func Fail(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case apperr.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case apperr.IsAuthorization(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	default:
		logger.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
