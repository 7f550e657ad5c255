package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseteiadirector/teia-geo/internal/cache"
)

// SeriesCacheAdmin is the operational surface of the series cache.
type SeriesCacheAdmin interface {
	GetStats() cache.SeriesCacheStats
	Invalidate(ctx context.Context, brandID string) (int, error)
}

// CacheHandler handles series cache monitoring and invalidation endpoints
type CacheHandler struct {
	cache SeriesCacheAdmin
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(c SeriesCacheAdmin) *CacheHandler {
	return &CacheHandler{
		cache: c,
	}
}

// GetCacheStats returns the hit/miss counters of the series cache
// @Summary Get series cache statistics
// @Tags cache
// @Produce json
// @Success 200 {object} cache.SeriesCacheStats
// @Router /api/v1/admin/cache/stats [get]
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.cache.GetStats(),
	})
}

// InvalidateBrand drops every cached window of a brand, e.g. after a backfill
// @Summary Invalidate cached series of a brand
// @Tags cache
// @Param brand_id path string true "Brand ID"
// @Produce json
// @Router /api/v1/admin/cache/{brand_id} [delete]
func (h *CacheHandler) InvalidateBrand(c *gin.Context) {
	brandID := strings.TrimSpace(c.Param("brand_id"))
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand_id parameter is required"})
		return
	}

	removed, err := h.cache.Invalidate(c.Request.Context(), brandID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to invalidate cache",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"brand_id": brandID,
		"removed":  removed,
	})
}
