package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/nutrition-heroes/internal/config"
	"github.com/tatianab/nutrition-heroes/internal/engine"
	"github.com/tatianab/nutrition-heroes/internal/game"
	"github.com/tatianab/nutrition-heroes/internal/logger"
	"github.com/tatianab/nutrition-heroes/internal/models"
	"github.com/tatianab/nutrition-heroes/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logger.Setup(cfg, logFile)

	var opts []engine.Option
	if cfg.ThemesFile != "" {
		themes, err := models.LoadThemes(cfg.ThemesFile)
		if err != nil {
			fmt.Printf("Error loading themes: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, engine.WithThemes(themes))
	}

	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.Model, opts...)
	if err != nil {
		fmt.Printf("Error creating engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	machine := game.New(eng, eng, log)
	if err := tui.Run(machine); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
