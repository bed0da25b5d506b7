package codesum

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/hiresense/internal/models"
)

const (
	maxSummaries       = 100
	summaryConcurrency = 4
)

// Service parses uploaded source files and summarizes their functions
type Service struct {
	summarizer Summarizer
}

// NewService creates a Service. A nil summarizer means docstring summaries.
func NewService(s Summarizer) *Service {
	if s == nil {
		s = Docstring{}
	}
	return &Service{summarizer: s}
}

// Analyze returns the structure of the file and a summary per function.
// Only the first 100 functions are summarized.
func (s *Service) Analyze(ctx context.Context, filename string, src []byte) (*models.CodeReport, error) {
	st, err := Parse(filename, src)
	if err != nil {
		return nil, err
	}

	fns := st.Functions
	if len(fns) > maxSummaries {
		fns = fns[:maxSummaries]
	}

	summaries := make([]models.FunctionSummary, len(fns))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)

	for i, fn := range fns {
		g.Go(func() error {
			text, err := s.summarizer.Summarize(gCtx, st.Language, fn)
			if err != nil {
				slog.Warn("failed to summarize function", "function", fn.Name, "error", err)
			}
			summaries[i] = models.FunctionSummary{
				Name:    fn.Name,
				Kind:    fn.Kind,
				Line:    fn.Line,
				Summary: text,
			}
			return nil
		})
	}
	_ = g.Wait()

	return &models.CodeReport{
		Status:   "success",
		Filename: filename,
		Language: st.Language,
		Structure: models.CodeStructure{
			Functions: st.FunctionNames(),
			Classes:   st.Classes,
		},
		Summaries: summaries,
	}, nil
}
