package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"weightmate/internal/bot"
	"weightmate/internal/config"
	"weightmate/internal/logger"
	"weightmate/internal/server"
	"weightmate/internal/services"
	"weightmate/internal/sheets"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting weightmate...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	store, err := sheets.NewClient(ctx, cfg.Sheets)
	if err != nil {
		logger.Fatalf("Failed to create sheets client: %v", err)
	}

	// Initialize services
	registry := services.NewRegistryService(store)
	ledger := services.NewLedgerService(store)
	charts, err := services.NewChartService(cfg.Server.GraphDir, cfg.Server.GraphFontPath)
	if err != nil {
		logger.Fatalf("Failed to create chart service: %v", err)
	}

	messenger, err := bot.NewLineMessenger(cfg.Line)
	if err != nil {
		logger.Fatalf("Failed to create line messenger: %v", err)
	}
	interpreter := bot.NewInterpreter(registry, ledger, charts, messenger, cfg.Server.PublicBaseURL)

	srv := server.New(messenger, interpreter, cfg.Server)
	logger.Info("weightmate is running", "port", cfg.Server.Port)
	if err := srv.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatalf("Server stopped with error: %v", err)
	}
}
