package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/usecase"
)

// InfrastructureHandler インフラ地点に関するHTTPハンドラー
type InfrastructureHandler struct {
	infra usecase.InfrastructureUseCase
}

// NewInfrastructureHandler InfrastructureHandlerの新しいインスタンスを作成
func NewInfrastructureHandler(infra usecase.InfrastructureUseCase) *InfrastructureHandler {
	return &InfrastructureHandler{
		infra: infra,
	}
}

// Create POST /api/users/:user_id/infrastructure
func (h *InfrastructureHandler) Create(c *gin.Context) {
	var req model.InfraPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}

	point, err := h.infra.Create(c.Request.Context(), c.Param("user_id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, point)
}

// List GET /api/users/:user_id/infrastructure
func (h *InfrastructureHandler) List(c *gin.Context) {
	points, err := h.infra.List(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"points": points,
		"count":  len(points),
	})
}

// Import POST /api/users/:user_id/infrastructure/import
func (h *InfrastructureHandler) Import(c *gin.Context) {
	var req model.ImportInfraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}

	result, err := h.infra.Import(c.Request.Context(), c.Param("user_id"), req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update PUT /api/users/:user_id/infrastructure/:id
func (h *InfrastructureHandler) Update(c *gin.Context) {
	var req model.InfraPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}

	point, err := h.infra.Update(c.Request.Context(), c.Param("user_id"), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, point)
}

// Delete DELETE /api/users/:user_id/infrastructure/:id
func (h *InfrastructureHandler) Delete(c *gin.Context) {
	if err := h.infra.Delete(c.Request.Context(), c.Param("user_id"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
