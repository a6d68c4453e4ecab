package trading

import (
	"context"
	"errors"
	"fmt"

	"finlit-api/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settlement errors, mapped to HTTP statuses at the handler boundary.
var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrNotOwner          = errors.New("not the portfolio owner")
	ErrInvalidSide       = errors.New("invalid trade side")
	ErrInvalidTrade      = errors.New("invalid trade parameters")
	ErrInsufficientFunds = errors.New("insufficient balance for this trade")
	ErrConflict          = errors.New("concurrent balance update, retry")
	ErrPersistence       = errors.New("trade persistence failed")
)

// maxSettleAttempts bounds the optimistic retry loop when concurrent
// trades race on the same portfolio balance.
const maxSettleAttempts = 5

// TradeRequest is a proposed trade against a portfolio. ClientRef is
// an optional caller-supplied key that makes retried submissions of
// the same logical trade settle at most once.
type TradeRequest struct {
	PortfolioID uuid.UUID
	Symbol      string
	Quantity    int
	Price       float64
	Side        models.TradeSide
	ClientRef   *string
}

// Settler validates and settles trades. The balance update and the
// trade record are committed in one transaction; the balance write is
// an optimistic compare-and-swap so concurrent settlements on the same
// portfolio cannot lose updates.
type Settler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSettler(db *gorm.DB, logger *zap.Logger) *Settler {
	return &Settler{db: db, logger: logger}
}

// Settle applies a trade on behalf of actorID and returns the created
// trade record.
//
// SELL trades credit the balance without any holdings check. There is
// no holdings ledger in the data model, so shorting is effectively
// unrestricted; callers should treat this as a known simplification.
func (s *Settler) Settle(ctx context.Context, req TradeRequest, actorID uuid.UUID) (*models.Trade, error) {
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return nil, ErrInvalidSide
	}
	if req.Quantity <= 0 || req.Price < 0 || req.Symbol == "" || len(req.Symbol) > 10 {
		return nil, ErrInvalidTrade
	}

	var portfolio models.Portfolio
	if err := s.db.WithContext(ctx).First(&portfolio, "id = ?", req.PortfolioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if portfolio.UserID != actorID {
		return nil, ErrNotOwner
	}

	// A retried submission carrying the same reference returns the
	// already-settled trade instead of deducting twice.
	if req.ClientRef != nil {
		var existing models.Trade
		err := s.db.WithContext(ctx).
			First(&existing, "portfolio_id = ? AND client_ref = ?", req.PortfolioID, *req.ClientRef).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	cost := float64(req.Quantity) * req.Price

	for attempt := 1; attempt <= maxSettleAttempts; attempt++ {
		trade, err := s.settleOnce(ctx, req, cost)
		if err == nil {
			return trade, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		s.logger.Debug("balance conflict, retrying settlement",
			zap.String("portfolio_id", req.PortfolioID.String()),
			zap.Int("attempt", attempt))
	}
	return nil, ErrConflict
}

// settleOnce performs a single compare-and-swap attempt inside a
// transaction. ErrConflict means another settlement changed the
// balance between our read and write.
func (s *Settler) settleOnce(ctx context.Context, req TradeRequest, cost float64) (*models.Trade, error) {
	var trade *models.Trade

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var portfolio models.Portfolio
		if err := tx.First(&portfolio, "id = ?", req.PortfolioID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPortfolioNotFound
			}
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		var newBalance float64
		switch req.Side {
		case models.SideBuy:
			if cost > portfolio.Balance {
				return ErrInsufficientFunds
			}
			newBalance = portfolio.Balance - cost
		case models.SideSell:
			newBalance = portfolio.Balance + cost
		}

		// The WHERE clause on the old balance is the CAS: zero rows
		// affected means a concurrent settlement won the race.
		res := tx.Model(&models.Portfolio{}).
			Where("id = ? AND balance = ?", portfolio.ID, portfolio.Balance).
			Update("balance", newBalance)
		if res.Error != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		trade = &models.Trade{
			PortfolioID: req.PortfolioID,
			Symbol:      req.Symbol,
			Quantity:    req.Quantity,
			Price:       req.Price,
			Side:        req.Side,
			ClientRef:   req.ClientRef,
		}
		if err := tx.Create(trade).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trade settled",
		zap.String("trade_id", trade.ID.String()),
		zap.String("portfolio_id", req.PortfolioID.String()),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Int("quantity", req.Quantity),
		zap.Float64("price", req.Price))
	return trade, nil
}
