// ====================================
// File: cmd/relay/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/app"
	"github.com/rovshanmuradov/solana-relay/internal/config"
	"github.com/rovshanmuradov/solana-relay/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.Log.File
	logCfg.Level = cfg.Log.Level
	logCfg.Development = cfg.Log.Development

	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	runner, err := app.NewRunner(cfg, log)
	if err != nil {
		log.Fatal("💥 Failed to initialize relay", zap.Error(err))
	}

	if err := runner.Run(context.Background()); err != nil {
		log.LogError("Relay execution error", err)
		_ = log.Sync()
		os.Exit(1)
	}
}
