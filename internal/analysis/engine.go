// Package analysis runs the resume analysis pipeline.
package analysis

import (
	"context"
	"strings"

	"github.com/terra-clan/hiresense/internal/models"
	"github.com/terra-clan/hiresense/internal/roles"
	"github.com/terra-clan/hiresense/internal/scoring"
	"github.com/terra-clan/hiresense/internal/similarity"
	"github.com/terra-clan/hiresense/internal/skills"
)

const maxExtractedSkills = 60

// Engine holds everything loaded once at startup. It is immutable and safe
// for concurrent use.
type Engine struct {
	catalog    *roles.Catalog
	extractor  skills.Extractor
	similarity similarity.Scorer
}

// NewEngine builds an engine. A nil extractor falls back to the heuristic over
// the catalog keywords and a nil scorer to TF-IDF.
func NewEngine(catalog *roles.Catalog, extractor skills.Extractor, scorer similarity.Scorer) *Engine {
	if catalog == nil {
		catalog = roles.NewCatalog()
	}
	if extractor == nil {
		extractor = skills.NewHeuristic(catalog.Keywords()...)
	}
	if scorer == nil {
		scorer = similarity.NewTFIDF()
	}
	return &Engine{catalog: catalog, extractor: extractor, similarity: scorer}
}

// Catalog returns the role catalog
func (e *Engine) Catalog() *roles.Catalog { return e.catalog }

// ExtractorName returns the name of the skill extraction strategy
func (e *Engine) ExtractorName() string { return e.extractor.Name() }

// SimilarityName returns the name of the JD similarity strategy
func (e *Engine) SimilarityName() string { return e.similarity.Name() }

// Analyze scores a resume text against the catalog and the job description
func (e *Engine) Analyze(ctx context.Context, text, jd, targetRole string) models.AnalysisResult {
	text = skills.NormalizeText(text)
	targetRole = strings.TrimSpace(targetRole)

	extracted := e.extractor.Extract(ctx, text)
	frag := scoring.ScoreRoles(scoring.SkillSet(extracted), e.catalog, targetRole)

	if len(extracted) > maxExtractedSkills {
		extracted = extracted[:maxExtractedSkills]
	}

	return models.AnalysisResult{
		ATSScore:         frag.ATSScore,
		RecommendedRoles: nonNil(frag.RecommendedRoles),
		RoleScores:       frag.RoleScores,
		MissingSkills:    nonNil(frag.MissingSkills),
		ExtractedSkills:  nonNil(extracted),
		JDMatch:          similarity.JDMatch(e.similarity, text, jd),
		TargetRole:       targetRole,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
