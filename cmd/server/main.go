package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mroshb/matchday/internal/config"
	"github.com/mroshb/matchday/internal/database"
	"github.com/mroshb/matchday/internal/handlers"
	"github.com/mroshb/matchday/internal/middleware"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/internal/repositories/memory"
	"github.com/mroshb/matchday/internal/scheduler"
	"github.com/mroshb/matchday/internal/services"
	"github.com/mroshb/matchday/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init()
	defer logger.Sync()

	logger.Info("Starting matchday server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open store", err)
	}

	clock := clockwork.NewRealClock()

	admission := services.NewAdmissionService(store, clock, cfg.QueueLimit)
	readiness := services.NewReadinessService(store)
	consensus := services.NewConsensusService(store, clock, cfg.GetVotingGrace(), cfg.ReportsPerParticipant)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, cfg.GetRateLimitWindow(), clock)
	defer limiter.Stop()

	app := handlers.NewApp()
	handlers.SetupRoutes(app, handlers.NewHandler(admission, readiness, consensus), cfg.JWTSecret, limiter)

	sweeper, err := scheduler.NewResultSweeper(consensus, cfg.GetResultSweepInterval(), clock)
	if err != nil {
		logger.Fatal("Failed to create result sweeper", err)
	}
	sweeper.Start()

	go func() {
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			logger.Fatal("HTTP server stopped", err)
		}
	}()

	logger.Info("Server started", "env", cfg.AppEnv, "port", cfg.AppPort, "store", cfg.StoreDriver)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := sweeper.Stop(); err != nil {
		logger.Error("Result sweeper shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

func openStore(cfg *config.Config) (repositories.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store := memory.NewStore()
		if _, err := database.SeedDemo(context.Background(), store); err != nil {
			logger.Warn("Failed to seed demo data", "error", err)
		}
		return store, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return repositories.NewGormStore(db), nil
}
