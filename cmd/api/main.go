package main

import (
	"club-marketplace/internal/client"
	"club-marketplace/internal/config"
	"club-marketplace/internal/repository"
	"club-marketplace/internal/server"
	"club-marketplace/internal/service"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)

	db := client.InitMysqlClient(cfg.DatabaseURL)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	clubRepo := repository.NewClubRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	resolver := service.NewTierResolver(cfg.Commission, cfg.Tiers, logger)
	rewardService := service.NewRewardService(db, cfg.Rewards, resolver, clubRepo, rewardRepo, logger)
	orderService := service.NewOrderService(db, cfg.Shipping, cfg.Rewards, productRepo, orderRepo, clubRepo, rewardService, logger)
	clubService := service.NewClubService(resolver, clubRepo)
	payoutService := service.NewPayoutService(db, resolver, clubRepo, payoutRepo, logger)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(orderService, clubService, rewardService, payoutService)

	logger.WithField("addr", serverAddr).Info("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Fatal("HTTP server shutdown error")
	}
}

func newLogger(cfg config.Log) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
