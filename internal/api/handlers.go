package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/hiresense/internal/analysis"
	"github.com/terra-clan/hiresense/internal/codesum"
	"github.com/terra-clan/hiresense/internal/extract"
	"github.com/terra-clan/hiresense/internal/models"
	"github.com/terra-clan/hiresense/internal/reports"
)

// Response helpers

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := errorBody{Error: apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.deps.Health.HealthCheckAll(r.Context())

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	respondJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Analysis handlers

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.UploadMaxBytes)

	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isTooLarge(err) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", validationMessage(err))
		return
	}

	resp, err := s.deps.Analysis.AnalyzeText(r.Context(), req)
	if err != nil {
		s.respondAnalysisError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r, "resume")
	if !ok {
		return
	}
	defer file.Close()

	if !extract.AllowedFile(header.Filename) {
		respondError(w, http.StatusBadRequest, "unsupported_file_type",
			fmt.Sprintf("unsupported file type %q, allowed: .pdf, .docx, .txt", filepath.Ext(header.Filename)))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read upload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file")
		return
	}

	resp, err := s.deps.Analysis.AnalyzeFile(r.Context(), header.Filename, data, r.FormValue("jd"), r.FormValue("target_role"))
	if err != nil {
		s.respondAnalysisError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analysis.ErrEmptyResume):
		respondError(w, http.StatusBadRequest, "validation_error", "resume text is empty")
	case errors.Is(err, analysis.ErrUnsupportedFile):
		respondError(w, http.StatusBadRequest, "unsupported_file_type", "allowed file types: .pdf, .docx, .txt")
	case errors.Is(err, analysis.ErrExtractionFailed):
		slog.Error("text extraction failed", "error", err, "caller", CallerFromContext(r.Context()))
		respondError(w, http.StatusInternalServerError, "extraction_failed", "could not extract text from the uploaded file")
	default:
		slog.Error("analysis failed", "error", err, "caller", CallerFromContext(r.Context()))
		respondError(w, http.StatusInternalServerError, "analysis_failed", "failed to analyze resume")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Analysis.History(r.Context())
	if err != nil {
		slog.Error("failed to list history", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Analysis.ReportsEnabled() {
		respondError(w, http.StatusNotFound, "not_found", "reports are disabled")
		return
	}

	id := chi.URLParam(r, "id")
	if !reports.ValidID(id) {
		respondError(w, http.StatusNotFound, "not_found", "report not found")
		return
	}

	rc, err := s.deps.Analysis.OpenReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, reports.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "report not found")
			return
		}
		slog.Error("failed to open report", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to open report")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="hiresense_report_%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Debug("report download interrupted", "error", err, "id", id)
	}
}

// Role handlers

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Analysis.Engine().Catalog().Names())
}

func (s *Server) handleRoleInsights(w http.ResponseWriter, r *http.Request) {
	insights := s.deps.Insights
	if insights == nil {
		insights = map[string]any{}
	}
	respondJSON(w, http.StatusOK, insights)
}

// Code handlers

func (s *Server) handleCodeAnalyze(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r, "code_file")
	if !ok {
		return
	}
	defer file.Close()

	src, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file")
		return
	}

	report, err := s.deps.Code.Analyze(r.Context(), extract.SecureFilename(header.Filename), src)
	if err != nil {
		var perr *codesum.ParseError
		switch {
		case errors.Is(err, codesum.ErrUnsupportedLanguage):
			respondError(w, http.StatusBadRequest, "unsupported_language", "supported source files: .py, .go")
		case errors.As(err, &perr):
			respondError(w, http.StatusUnprocessableEntity, "parse_error", perr.Error())
		default:
			slog.Error("code analysis failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to analyze code")
		}
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// formFile parses a size-limited multipart form and returns one file field.
// It writes the error response itself and returns ok=false on failure.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.UploadMaxBytes)

	if err := r.ParseMultipartForm(s.config.UploadMaxBytes); err != nil {
		if isTooLarge(err) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("upload exceeds %d bytes", s.config.UploadMaxBytes))
			return nil, nil, false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart/form-data body")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			respondError(w, http.StatusBadRequest, "missing_file", fmt.Sprintf("no file uploaded in field %q", field))
			return nil, nil, false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file")
		return nil, nil, false
	}

	if header.Filename == "" {
		file.Close()
		respondError(w, http.StatusBadRequest, "missing_file", "empty filename")
		return nil, nil, false
	}

	return file, header, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		default:
			return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
	}
	return "invalid request"
}
