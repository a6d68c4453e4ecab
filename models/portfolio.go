package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultStartingBalance is the simulated cash every new student
// portfolio starts with.
const DefaultStartingBalance = 10000.00

type Portfolio struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance   float64   `gorm:"not null;default:10000.00" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// Trade is an append-only record; rows are never updated or deleted.
// ClientRef, when set, deduplicates retried submissions of the same
// logical trade within a portfolio.
type Trade struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_trades_portfolio_ref;not null" json:"portfolio_id"`
	Symbol      string    `gorm:"size:10;not null" json:"symbol"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Price       float64   `gorm:"not null" json:"price"`
	Side        TradeSide `gorm:"size:4;not null" json:"side"`
	ClientRef   *string   `gorm:"uniqueIndex:idx_trades_portfolio_ref" json:"client_ref,omitempty"`
	ExecutedAt  time.Time `json:"executed_at"`
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now().UTC()
	}
	return nil
}
