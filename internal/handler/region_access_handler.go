package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"RegionAccess-App/internal/application"
	"RegionAccess-App/internal/domain/model"
)

// RegionAccessHandler 領域認可に関するHTTPハンドラー
type RegionAccessHandler struct {
	regions application.RegionAccessService
}

// NewRegionAccessHandler RegionAccessHandlerの新しいインスタンスを作成
func NewRegionAccessHandler(regions application.RegionAccessService) *RegionAccessHandler {
	return &RegionAccessHandler{
		regions: regions,
	}
}

// CheckRequest 判定リクエスト
type CheckRequest struct {
	UserID string   `json:"user_id" binding:"required"`
	Lat    *float64 `json:"lat" binding:"required"`
	Lng    *float64 `json:"lng" binding:"required"`
}

// Health GET /api/health
func (h *RegionAccessHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"service":           "RegionAccess-App",
		"national_boundary": h.regions.NationalState(),
	})
}

// Check POST /api/regions/check - 点に対する操作可否を判定
func (h *RegionAccessHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}

	decision := h.regions.Authorize(c.Request.Context(), req.UserID, model.LatLng{Lat: *req.Lat, Lng: *req.Lng})
	c.JSON(http.StatusOK, decision)
}

// Status GET /api/users/:user_id/regions
func (h *RegionAccessHandler) Status(c *gin.Context) {
	status, err := h.regions.Status(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Bounds GET /api/users/:user_id/regions/bounds - 許可領域が空なら 204
func (h *RegionAccessHandler) Bounds(c *gin.Context) {
	bbox, err := h.regions.Bounds(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if bbox == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, bbox)
}

// Reload POST /api/users/:user_id/regions/reload
func (h *RegionAccessHandler) Reload(c *gin.Context) {
	status, err := h.regions.Reload(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Release DELETE /api/users/:user_id/session
func (h *RegionAccessHandler) Release(c *gin.Context) {
	h.regions.Release(c.Param("user_id"))
	c.Status(http.StatusNoContent)
}
