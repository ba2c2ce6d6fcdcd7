// ABOUTME: Entry point for the eonctl CLI
// ABOUTME: Command-line access to EON dashboard pages and records

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eondash/eon-dashboard/cli/cmd"
	"github.com/eondash/eon-dashboard/logger"
)

func main() {
	// Library logging stays quiet unless something goes wrong
	slog.SetDefault(logger.New(os.Stderr, getEnv("EON_LOG_LEVEL", "error"), "text"))

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
