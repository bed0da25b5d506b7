package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/terra-clan/hiresense/internal/config"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <source-file>",
	Short: "Summarize the functions of a Python or Go source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	gen, err := newGenerator(ctx, cfg.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	svc, err := newCodeService(cfg, gen)
	if err != nil {
		return err
	}

	report, err := svc.Analyze(ctx, filepath.Base(args[0]), src)
	if err != nil {
		return err
	}
	return printJSON(report)
}
