package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"health-concierge/backend/internal/analytics"
	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
)

// AnalyticsHandler serves usage analytics endpoints
type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
	now        func() time.Time
}

// NewAnalyticsHandler creates the analytics handler
func NewAnalyticsHandler(aggregator *analytics.Aggregator, now func() time.Time) *AnalyticsHandler {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsHandler{aggregator: aggregator, now: now}
}

// RegisterRoutes mounts the analytics routes on the router group
func (h *AnalyticsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/specialists/stats", h.SpecialistStats)
	r.GET("/analytics/time-spent", h.TimeSpent)
	r.GET("/analytics/word-generation-trends", h.WordTrends)
}

// refDate resolves the optional date query parameter, defaulting to now.
// An explicit date makes the seven day window reproducible.
func (h *AnalyticsHandler) refDate(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return h.now().UTC(), nil
	}
	ref, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must use YYYY-MM-DD format")
	}
	return ref, nil
}

// SpecialistStats handles GET /specialists/stats
func (h *AnalyticsHandler) SpecialistStats(c *gin.Context) {
	stats, err := h.aggregator.SpecialistStats(c.Request.Context(), c.Query("specialist_name"))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialist_stats": stats})
}

// TimeSpent handles GET /analytics/time-spent
func (h *AnalyticsHandler) TimeSpent(c *gin.Context) {
	ref, err := h.refDate(c)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	days, summary, err := h.aggregator.TimeSpent(c.Request.Context(), ref)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"daily_time_data": days,
		"summary":         summary,
	})
}

// WordTrends handles GET /analytics/word-generation-trends
func (h *AnalyticsHandler) WordTrends(c *gin.Context) {
	ref, err := h.refDate(c)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	trends, totals, err := h.aggregator.WordTrends(c.Request.Context(), ref)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"specialist_trends": trends,
		"specialist_totals": totals,
	})
}
