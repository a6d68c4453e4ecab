package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"finlit-api/auth"
	"finlit-api/chatbot"
	"finlit-api/config"
	"finlit-api/database"
	"finlit-api/handlers"
	"finlit-api/logger"
	"finlit-api/market"
	"finlit-api/trading"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	zlog, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer zlog.Sync()

	db, err := database.New(cfg.Database)
	if err != nil {
		zlog.Fatal("Failed to connect to the database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal("Failed to get database instance", zap.Error(err))
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLMinutes)*time.Minute)
	settler := trading.NewSettler(db, zlog)
	relay := chatbot.NewRelay(cfg.OpenAI, zlog)

	generator := market.NewGenerator(db, zlog, time.Duration(cfg.Market.EventIntervalSeconds)*time.Second)
	go generator.Run(ctx)

	h := handlers.New(db, rdb, issuer, settler, relay, zlog)
	router := handlers.Router(h, cfg.Server.AllowedOrigins)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zlog.Info("starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zlog.Fatal("Server exited", zap.Error(err))
	}
}
