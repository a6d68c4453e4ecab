package handlers

import (
	"errors"
	"net/http"

	"finlit-api/market"
	"finlit-api/middleware"
	"finlit-api/models"
	"finlit-api/trading"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const tradeHistoryLimit = 50

type TradeInput struct {
	PortfolioID uuid.UUID        `json:"portfolio_id" binding:"required"`
	Symbol      string           `json:"symbol" binding:"required,min=1,max=10"`
	Quantity    int              `json:"quantity" binding:"required,gt=0"`
	Price       float64          `json:"price" binding:"min=0"`
	Side        models.TradeSide `json:"side" binding:"required"`
}

// GetPortfolio returns a user's portfolio. Only the owner or an admin
// may view it.
func (h *Handler) GetPortfolio(c *gin.Context) {
	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.MustGet(middleware.ContextRole).(models.Role)
	if callerID != targetUserID && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this portfolio"})
		return
	}

	var portfolio models.Portfolio
	if err := h.DB.First(&portfolio, "user_id = ?", targetUserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// GetPortfolioValue returns a point-in-time simulated valuation of a
// portfolio: cash plus a fresh price draw per held symbol, aggregated
// from the trade log. Valuations are non-deterministic by design.
func (h *Handler) GetPortfolioValue(c *gin.Context) {
	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.MustGet(middleware.ContextRole).(models.Role)
	if callerID != targetUserID && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this portfolio"})
		return
	}

	var portfolio models.Portfolio
	if err := h.DB.First(&portfolio, "user_id = ?", targetUserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var trades []models.Trade
	if err := h.DB.Where("portfolio_id = ?", portfolio.ID).Find(&trades).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trades"})
		return
	}

	holdings := make(map[string]int)
	for _, t := range trades {
		if t.Side == models.SideBuy {
			holdings[t.Symbol] += t.Quantity
		} else {
			holdings[t.Symbol] -= t.Quantity
		}
	}
	for symbol, qty := range holdings {
		if qty <= 0 {
			delete(holdings, symbol)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"portfolio_id": portfolio.ID,
		"cash_balance": portfolio.Balance,
		"total_value":  market.PortfolioValue(holdings, portfolio.Balance),
	})
}

// ExecuteTrade settles a trade against the caller's portfolio. An
// optional Idempotency-Key header deduplicates retried submissions.
func (h *Handler) ExecuteTrade(c *gin.Context) {
	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	req := trading.TradeRequest{
		PortfolioID: input.PortfolioID,
		Symbol:      input.Symbol,
		Quantity:    input.Quantity,
		Price:       input.Price,
		Side:        input.Side,
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		req.ClientRef = &key
	}

	trade, err := h.Settler.Settle(c.Request.Context(), req, callerID)
	if err != nil {
		status, msg := settlementStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, trade)
}

func settlementStatus(err error) (int, string) {
	switch {
	case errors.Is(err, trading.ErrPortfolioNotFound):
		return http.StatusNotFound, "Portfolio not found"
	case errors.Is(err, trading.ErrNotOwner):
		return http.StatusForbidden, "Not authorized to trade for this portfolio"
	case errors.Is(err, trading.ErrInvalidSide):
		return http.StatusBadRequest, "Invalid trade side"
	case errors.Is(err, trading.ErrInvalidTrade):
		return http.StatusBadRequest, "Invalid trade parameters"
	case errors.Is(err, trading.ErrInsufficientFunds):
		return http.StatusBadRequest, "Insufficient balance for this trade"
	case errors.Is(err, trading.ErrConflict):
		return http.StatusConflict, "Trade conflicted with a concurrent update, retry"
	default:
		return http.StatusBadGateway, "Trade execution failed"
	}
}

// ListTrades returns the most recent trades for a portfolio, newest
// first, capped at 50.
func (h *Handler) ListTrades(c *gin.Context) {
	portfolioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid portfolio id"})
		return
	}

	var portfolio models.Portfolio
	if err := h.DB.First(&portfolio, "id = ?", portfolioID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.MustGet(middleware.ContextRole).(models.Role)
	if portfolio.UserID != callerID && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view these trades"})
		return
	}

	var trades []models.Trade
	if err := h.DB.
		Where("portfolio_id = ?", portfolioID).
		Order("executed_at desc").
		Limit(tradeHistoryLimit).
		Find(&trades).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trades"})
		return
	}
	c.JSON(http.StatusOK, trades)
}
