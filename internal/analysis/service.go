package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/hiresense/internal/events"
	"github.com/terra-clan/hiresense/internal/extract"
	"github.com/terra-clan/hiresense/internal/history"
	"github.com/terra-clan/hiresense/internal/models"
	"github.com/terra-clan/hiresense/internal/reports"
)

var (
	ErrEmptyResume      = errors.New("resume text is empty")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrExtractionFailed = errors.New("failed to extract text from file")
)

// UploadedAtLayout is the minute-precision local time stored with each entry
const UploadedAtLayout = "2006-01-02 15:04"

// Service runs analyses and records their side effects: history entry,
// optional PDF report and analysis events. Side-effect failures are logged
// and never fail the analysis.
type Service struct {
	engine    *Engine
	history   history.Repository
	reports   reports.Store
	publisher events.Publisher

	now   func() time.Time
	newID func() string
}

// NewService wires the pipeline. reports and publisher may be nil.
func NewService(engine *Engine, repo history.Repository, store reports.Store, publisher events.Publisher) *Service {
	return &Service{
		engine:    engine,
		history:   repo,
		reports:   store,
		publisher: publisher,
		now:       time.Now,
		newID:     newID,
	}
}

// Engine returns the analysis engine
func (s *Service) Engine() *Engine { return s.engine }

// ReportsEnabled reports whether analyses produce PDF reports
func (s *Service) ReportsEnabled() bool { return s.reports != nil }

// AnalyzeText analyzes a pasted resume
func (s *Service) AnalyzeText(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResponse, error) {
	req.Normalize()
	if req.Resume == "" {
		return nil, ErrEmptyResume
	}

	return s.run(ctx, req, "", models.SourceJSON), nil
}

// AnalyzeFile extracts the text of an uploaded document and analyzes it
func (s *Service) AnalyzeFile(ctx context.Context, filename string, data []byte, jd, targetRole string) (*models.AnalysisResponse, error) {
	if !extract.AllowedFile(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, filename)
	}
	filename = extract.SecureFilename(filename)

	text, err := extract.Text(filename, data)
	if err != nil {
		if errors.Is(err, extract.ErrEmptyDocument) {
			return nil, ErrEmptyResume
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	req := models.AnalyzeRequest{Resume: text, JD: jd, TargetRole: targetRole}
	req.Normalize()

	return s.run(ctx, req, filename, models.SourceFile), nil
}

func (s *Service) run(ctx context.Context, req models.AnalyzeRequest, filename, source string) *models.AnalysisResponse {
	start := s.now()
	result := s.engine.Analyze(ctx, req.Resume, req.JD, req.TargetRole)

	entry := models.HistoryEntry{
		ID:             s.newID(),
		UploadedAt:     start.Format(UploadedAtLayout),
		Filename:       filename,
		Source:         source,
		AnalysisResult: result,
	}

	if err := s.history.Save(ctx, entry); err != nil {
		slog.Error("failed to save history entry", "id", entry.ID, "error", err)
	}

	if s.reports != nil {
		s.storeReport(ctx, entry)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, entry); err != nil {
			slog.Warn("failed to publish analysis", "id", entry.ID, "error", err)
		}
	}

	slog.Info("resume analyzed",
		"id", entry.ID,
		"source", source,
		"ats_score", result.ATSScore,
		"jd_match", result.JDMatch,
		"skills", len(result.ExtractedSkills),
		"duration", time.Since(start),
	)

	return &models.AnalysisResponse{
		ID:             entry.ID,
		AnalysisResult: result,
		Filename:       filename,
	}
}

func (s *Service) storeReport(ctx context.Context, entry models.HistoryEntry) {
	data, err := reports.Render(entry)
	if err != nil {
		slog.Error("failed to render report", "id", entry.ID, "error", err)
		return
	}
	if err := s.reports.Put(ctx, entry.ID, data); err != nil {
		slog.Error("failed to store report", "id", entry.ID, "error", err)
	}
}

// History returns past analyses, newest first
func (s *Service) History(ctx context.Context) ([]models.HistoryEntry, error) {
	entries, err := s.history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// OpenReport returns the PDF report of an analysis
func (s *Service) OpenReport(ctx context.Context, id string) (io.ReadCloser, error) {
	if s.reports == nil || !reports.ValidID(id) {
		return nil, reports.ErrReportNotFound
	}
	return s.reports.Open(ctx, id)
}

// newID returns the first 8 hex characters of a random UUID
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
