package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terra-clan/hiresense/internal/config"
	"github.com/terra-clan/hiresense/internal/extract"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume-file>",
	Short: "Analyze a resume file and print the result as JSON",
	Long:  "Analyze a local .pdf, .docx or .txt resume against the role catalog and an optional job description. Nothing is written to the history.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeJDFile     string
	analyzeTargetRole string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJDFile, "jd", "", "Path to a job description text file")
	analyzeCmd.Flags().StringVar(&analyzeTargetRole, "target-role", "", "Role to put first in recommended_roles when it is in the catalog")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := args[0]
	if !extract.AllowedFile(path) {
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	text, err := extract.Text(filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}

	var jd string
	if analyzeJDFile != "" {
		raw, err := os.ReadFile(analyzeJDFile)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		jd = strings.TrimSpace(string(raw))
	}

	gen, err := newGenerator(ctx, cfg.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	engine, err := newEngine(cfg, gen)
	if err != nil {
		return err
	}

	result := engine.Analyze(ctx, text, jd, analyzeTargetRole)
	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
