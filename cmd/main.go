package main

import (
	"log/slog"
	"os"

	"github.com/itsDrac/gemstone-auction/cmd/server"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found or error loading it", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler

	// Configure structured logging with slog
	logOptions := &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelInfo,
	}
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, logOptions)
	} else {
		handler = slog.NewTextHandler(os.Stdout, logOptions)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("Initializing gemstone auction service...")

	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("server failed to start", "error", err)
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		slog.Error("server failed to run", "error", err)
		os.Exit(1)
	}
}
