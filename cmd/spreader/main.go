package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"spreader/internal/app"
	"spreader/internal/config"
	"spreader/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := config.PathFromEnv()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	logger.Infof("✓ config loaded from %s (env=%s, variant=%s)", cfgPath, cfg.App.Env, cfg.Strategy.Variant)

	_, runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		logger.Warnf("close pass archive: %v", err)
	}
	logger.Sync()
	if runErr != nil {
		log.Printf("pass failed: %v", runErr)
		os.Exit(1)
	}
}
