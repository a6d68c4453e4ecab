package market

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Generator periodically persists a simulated market event.
type Generator struct {
	db       *gorm.DB
	logger   *zap.Logger
	interval time.Duration
}

func NewGenerator(db *gorm.DB, logger *zap.Logger, interval time.Duration) *Generator {
	return &Generator{db: db, logger: logger, interval: interval}
}

// Run emits one event per interval until ctx is cancelled. Store
// failures are logged and the loop keeps going.
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("market event generator stopped")
			return
		case <-ticker.C:
			event := GenerateEvent()
			if err := g.db.WithContext(ctx).Create(&event).Error; err != nil {
				g.logger.Error("failed to persist market event", zap.Error(err))
				continue
			}
			g.logger.Debug("market event generated",
				zap.String("event_type", event.EventType),
				zap.String("id", event.ID.String()))
		}
	}
}
