// Package main provides the entry point for the HireSense API server and CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/terra-clan/hiresense/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "hiresense",
	Short: "HireSense resume analysis server",
	Long:  "HireSense scores resumes against role keyword profiles and job descriptions, keeps an analysis history and summarizes source code.",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := logLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		setupLogging(config.ParseLogLevel(level))
	},
	SilenceUsage: true,
}

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs the JSON logger. Logs go to stderr so CLI output on
// stdout stays machine-readable.
func setupLogging(level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
