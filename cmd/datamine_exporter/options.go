package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonathan/datamine-exporter/internal/config"
	"github.com/jonathan/datamine-exporter/internal/observability"
	"github.com/jonathan/datamine-exporter/internal/pipeline"
)

// resolveConfig is loadConfig for commands that read the spreadsheet.
func resolveConfig(cmd *cobra.Command, override func(cfg *config.Config)) (config.Config, error) {
	cfg, err := loadConfig(cmd, override)
	if err != nil {
		return cfg, err
	}
	if cfg.SpreadsheetID == "" {
		return cfg, fmt.Errorf("--spreadsheet-id must be provided (via flag, config or %s)", config.EnvSpreadsheetID)
	}
	return cfg, nil
}

// loadConfig loads the config file, applies explicitly set flags, then defaults
// and environment fallbacks. override applies command specific flags.
func loadConfig(cmd *cobra.Command, override func(cfg *config.Config)) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if rootConfigPath != "" {
		loadedCfg, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("spreadsheet-id") {
		cfg.SpreadsheetID = rootSpreadsheetID
	}
	if flags.Changed("api-key") {
		cfg.APIKey = rootAPIKey
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = rootCacheDir
	}
	if flags.Changed("refresh") {
		cfg.Refresh = rootRefresh
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootVerbose
	}
	if override != nil {
		override(&cfg)
	}

	// Step 3: Apply defaults for unset values, then the environment
	cfg = cfg.MergeWithDefaults(config.DefaultConfig())
	cfg.ApplyEnv(nil)

	// Step 4: Validate
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger writes log lines to the command's error stream.
func newLogger(cmd *cobra.Command, cfg config.Config) *logrus.Logger {
	return observability.NewLogger(cfg.Verbose, cmd.ErrOrStderr())
}

// runOptions builds pipeline options for a resolved config.
func runOptions(cmd *cobra.Command, cfg config.Config) pipeline.RunOptions {
	return pipeline.RunOptions{
		Config: cfg,
		Logger: newLogger(cmd, cfg),
		Out:    cmd.OutOrStdout(),
	}
}
