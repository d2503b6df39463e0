package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"thumbscope/internal/adapters/vision"
	app "thumbscope/internal/app"
	"thumbscope/internal/config"
	"thumbscope/internal/domain/model"
	"thumbscope/pkg/logger"
)

// runAnalyze scores a single image file and prints the report to stdout.
func runAnalyze(path, title, description, mode string) error {
	if err := logger.Init(); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	// One-shot runs keep log noise off stdout so the JSON stays pipeable.
	_ = logger.SetLevelString("error")

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	opts := []app.Option{
		app.WithWorkerCount(1),
		app.WithModeTimeouts(
			time.Duration(cfg.ModelTimeoutQuickMS)*time.Millisecond,
			time.Duration(cfg.ModelTimeoutDeepMS)*time.Millisecond,
		),
	}
	if cfg.ModelAPIKey != "" {
		opts = append(opts, app.WithRater(
			vision.NewRater(cfg.ModelProvider, cfg.ModelName, cfg.ModelAPIKey, cfg.ModelBaseURL),
		))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop(ctx)

	rep, err := svc.Analyze(ctx, model.AnalyzeRequest{
		Image:       data,
		Title:       title,
		Description: description,
		Mode:        model.ParseMode(mode),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
