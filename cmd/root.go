package main

import (
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/rpsx/config"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "rpsx",
		Short:         "Rock Paper Scissors Lizard Spock, staked on an Ethereum contract",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile(), "dotenv file read before the environment")

	root.AddCommand(
		newPlayCmd(&envFile),
		newSecretsCmd(&envFile),
	)
	return root
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig(envFile string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, newLogger(level), nil
}

func newLogger(level slog.Level) *slog.Logger {
	logger := pterm.DefaultLogger.WithLevel(ptermLevel(level))
	return slog.New(pterm.NewSlogHandler(logger))
}

func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level < slog.LevelInfo:
		return pterm.LogLevelDebug
	case level < slog.LevelWarn:
		return pterm.LogLevelInfo
	case level < slog.LevelError:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}
