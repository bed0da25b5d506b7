package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/hiresense/internal/analysis"
	"github.com/terra-clan/hiresense/internal/codesum"
	"github.com/terra-clan/hiresense/internal/config"
	"github.com/terra-clan/hiresense/internal/llm/gemini"
	"github.com/terra-clan/hiresense/internal/roles"
	"github.com/terra-clan/hiresense/internal/similarity"
	"github.com/terra-clan/hiresense/internal/skills"
)

// generator is satisfied by *gemini.Generator and consumed by the skills
// tagger and the code summarizer.
type generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// newGenerator returns nil when no Gemini key is configured
func newGenerator(ctx context.Context, cfg config.GeminiConfig) (generator, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	gen, err := gemini.NewGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	slog.Info("gemini enabled", "model", gen.Model())
	return gen, nil
}

// newEngine loads the role catalog and selects the skill extractor and the
// similarity scorer.
func newEngine(cfg *config.Config, gen generator) (*analysis.Engine, error) {
	catalog, err := roles.LoadCatalog(cfg.Roles.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	tagger, err := skills.NewTagger(cfg.Analysis.SkillsTagger, gen, cfg.Gemini.Timeout)
	if err != nil {
		return nil, err
	}

	scorer, err := similarity.New(cfg.Analysis.SimilarityMode)
	if err != nil {
		return nil, err
	}

	engine := analysis.NewEngine(catalog, skills.New(skills.NewHeuristic(catalog.Keywords()...), tagger), scorer)
	slog.Info("analysis engine ready",
		"roles", catalog.Len(),
		"extractor", engine.ExtractorName(),
		"similarity", engine.SimilarityName(),
	)
	return engine, nil
}

func newCodeService(cfg *config.Config, gen generator) (*codesum.Service, error) {
	summarizer, err := codesum.NewSummarizer(cfg.Analysis.Summarizer, gen, cfg.Gemini.Timeout)
	if err != nil {
		return nil, err
	}
	slog.Info("code summarizer ready", "summarizer", summarizer.Name())
	return codesum.NewService(summarizer), nil
}
