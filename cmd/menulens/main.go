package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	corecfg "github.com/menulens/menulens/internal/core/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "menulens",
		Short:         "Live engagement analytics for AR restaurant menus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "menulens.yaml", "Path to configuration file")

	loadConfig := func() (*corecfg.Config, error) {
		path := configPath
		if _, err := os.Stat(path); err != nil && os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("config") {
			// No file in the working directory: defaults and env only.
			path = ""
		}
		cfg, err := corecfg.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		setupLogger(cfg.Log)
		return cfg, nil
	}

	rootCmd.AddCommand(newServeCmd(loadConfig), newMigrateCmd(loadConfig))
	return rootCmd
}

func setupLogger(cfg corecfg.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
