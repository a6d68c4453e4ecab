package handlers

import (
	"context"

	"finlit-api/auth"
	"finlit-api/chatbot"
	"finlit-api/trading"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChatRelay is what handlers need from the chatbot; satisfied by
// *chatbot.Relay and by stubs in tests.
type ChatRelay interface {
	Ask(ctx context.Context, query string, history []chatbot.Message) string
}

// Handler carries the dependencies shared by all HTTP handlers. Rdb is
// optional; when nil the Redis-backed caches are skipped.
type Handler struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Issuer  *auth.TokenIssuer
	Settler *trading.Settler
	Relay   ChatRelay
	Logger  *zap.Logger
}

func New(db *gorm.DB, rdb *redis.Client, issuer *auth.TokenIssuer, settler *trading.Settler, relay ChatRelay, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Rdb:     rdb,
		Issuer:  issuer,
		Settler: settler,
		Relay:   relay,
		Logger:  logger,
	}
}
