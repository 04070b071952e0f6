package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"realnews/cache"
	"realnews/generator"
	"realnews/models"
)

// ListTrends serves the trend list, cached for five minutes.
func (h *Handlers) ListTrends(c *gin.Context) {
	if cached, ok := h.Cache.Get(cache.KeyTrends); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	trends, err := h.Trends.All(c.Request.Context())
	if err != nil {
		h.serverError(c, "failed to fetch trends", err)
		return
	}
	if trends == nil {
		trends = []models.Trend{}
	}

	h.Cache.Set(cache.KeyTrends, trends, cache.TTLTrends)
	c.JSON(http.StatusOK, trends)
}

// FetchTrends triggers a trend ingestion run.
func (h *Handlers) FetchTrends(c *gin.Context) {
	created, err := h.Ingester.Ingest(c.Request.Context())
	if err != nil {
		h.audit(c.Request.Context(), "trend_fetch_manual", models.LogError,
			fmt.Sprintf("Trendlarni olishda xatolik: %v", err), "")
		h.serverError(c, "failed to fetch trends", err)
		return
	}

	h.audit(c.Request.Context(), "trend_fetch_manual", models.LogSuccess,
		fmt.Sprintf("%d ta yangi trend topildi", created), "")
	h.Cache.Delete(cache.KeyTrends)

	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}

type generateFromTrendRequest struct {
	TrendID string `json:"trendId" binding:"required"`
}

// GenerateFromTrend generates one article for a specific trend.
func (h *Handlers) GenerateFromTrend(c *gin.Context) {
	var req generateFromTrendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trendId is required"})
		return
	}

	snap, err := h.snapshot(c.Request.Context())
	if err != nil {
		h.serverError(c, "failed to generate article", err)
		return
	}

	article, err := h.Gen.FromTrend(c.Request.Context(), req.TrendID, snap)
	if err != nil {
		if errors.Is(err, generator.ErrTrendProcessed) {
			c.JSON(http.StatusConflict, gin.H{"error": "trend already processed"})
			return
		}
		h.serverError(c, "failed to generate article", err)
		return
	}

	h.Cache.Delete(cache.KeyTrends)
	h.invalidateArticle(article.ID)
	c.JSON(http.StatusOK, article)
}
