package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"resume-builder/internal/bootstrap"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/telemetry"
)

const app = "resumectl"

var (
	cfgFile   string
	logJSON   bool
	logDebug  bool
	outWriter io.Writer = os.Stdout

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "resumectl manages users and resume versions of the resume builder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&logDebug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&logJSON, "json", "j", false, "json format for logging")
}

// loadConfig reads configuration the same way the API does and installs the logger.
func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		if err := os.Setenv("CONFIG_FILE", cfgFile); err != nil {
			return config.Config{}, err
		}
	}
	cfg := config.Load()
	if _, err := telemetry.Init(logJSON, logDebug || cfg.LogDebug); err != nil {
		return config.Config{}, fmt.Errorf("creating a logger: %w", err)
	}
	return cfg, nil
}

func buildApp() (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(outWriter)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
