package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"finlit-api/models"

	"github.com/gin-gonic/gin"
)

const (
	marketEventsLimit    = 20
	marketEventsCacheKey = "market:events:recent"
	marketEventsCacheTTL = 30 * time.Second
)

// ListMarketEvents returns the 20 most recent market events, newest
// first, behind a short-lived Redis read-through cache.
func (h *Handler) ListMarketEvents(c *gin.Context) {
	ctx := c.Request.Context()

	if h.Rdb != nil {
		if cached, err := h.Rdb.Get(ctx, marketEventsCacheKey).Result(); err == nil {
			var events []models.MarketEvent
			if err := json.Unmarshal([]byte(cached), &events); err == nil {
				c.JSON(http.StatusOK, events)
				return
			}
		}
	}

	var events []models.MarketEvent
	if err := h.DB.
		Order("event_date desc").
		Limit(marketEventsLimit).
		Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch market events"})
		return
	}

	if h.Rdb != nil {
		if payload, err := json.Marshal(events); err == nil {
			// Cache write failures are not worth failing the request over.
			h.Rdb.Set(ctx, marketEventsCacheKey, payload, marketEventsCacheTTL)
		}
	}

	c.JSON(http.StatusOK, events)
}
