package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mingle/internal/config"
	"mingle/internal/logging"
)

const logLevelEnvKey = "MINGLE_LOG_LEVEL"

func newRootCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mingle",
		Short: "Mingle is a small social feed backed by managed cloud services",
	}

	cmd.Version = "0.0.0"

	cmd.AddCommand(
		newSrvCmd(cfg),
		newSecretCmd(cfg),
	)

	return cmd
}

// logLevelVar builds the process log threshold from the environment.
func logLevelVar() *slog.LevelVar {
	level := new(slog.LevelVar)
	switch strings.ToLower(strings.TrimSpace(os.Getenv(logLevelEnvKey))) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	case "critical":
		level.Set(logging.LevelCritical)
	case "", "info":
		level.Set(slog.LevelInfo)
	default:
		fmt.Fprintf(os.Stderr, "warning: invalid %s=%q; defaulting to info\n", logLevelEnvKey, os.Getenv(logLevelEnvKey))
		level.Set(slog.LevelInfo)
	}
	return level
}
