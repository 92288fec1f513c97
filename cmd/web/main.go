package main

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"contractpulse/internal/app"
	"contractpulse/internal/config"
	"contractpulse/internal/infrastructure"
)

// Embedded dashboard files
//
//go:embed all:static
var staticFiles embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	var frontendFS fs.FS
	if sub, err := fs.Sub(staticFiles, "static"); err == nil {
		frontendFS = sub
	} else {
		logger.Warn("Dashboard embedding failed", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(cfg, logger, app.Options{FrontendFS: frontendFS})
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
