package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/service"
	"RegionAccess-App/internal/usecase"
)

// respondError エラーを HTTP ステータスと {"error","message"} に変換
func respondError(c *gin.Context, err error) {
	var authErr *usecase.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   authErr.Decision.Reason,
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrInvalidInfraRequest), errors.Is(err, model.ErrInvalidPoint):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrInfraNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrInfraDuplicate):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "already_exists",
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrLoadDiscarded):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "session_released",
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrDataUnavailable), errors.Is(err, model.ErrDataMalformed):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "data_unavailable",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": message,
	})
}
