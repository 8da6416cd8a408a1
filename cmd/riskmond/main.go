package main

import (
	"fmt"
	"os"

	"github.com/ngoclma/risk-monitoring-system/internal/cli"
	"github.com/ngoclma/risk-monitoring-system/internal/config"
	"github.com/ngoclma/risk-monitoring-system/internal/logging"
)

func main() {
	configDir := os.Getenv("RISKMOND_CONFIG_DIR")

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riskmond: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logCfg.FilePath = cfg.Logging.Path
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
