// Package api exposes the HireSense HTTP API.
package api

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/hiresense/internal/analysis"
	"github.com/terra-clan/hiresense/internal/codesum"
	"github.com/terra-clan/hiresense/internal/config"
	"github.com/terra-clan/hiresense/internal/events"
	"github.com/terra-clan/hiresense/internal/services"
)

// Deps are the collaborators the server routes requests to
type Deps struct {
	Analysis *analysis.Service
	Code     *codesum.Service
	// Insights is served as-is by /role_insights
	Insights any
	Health   *services.Registry
	// Stream feeds /history/stream; nil disables the route
	Stream *events.Broadcaster
}

// Server represents the HTTP API server
type Server struct {
	config    config.ServerConfig
	router    *chi.Mux
	deps      Deps
	auth      *AuthMiddleware
	validator *validator.Validate
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = services.NewRegistry()
	}
	if deps.Code == nil {
		deps.Code = codesum.NewService(nil)
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 10 << 20
	}

	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	s := &Server{
		config:    cfg,
		deps:      deps,
		auth:      NewAuthMiddleware(cfg.APIKeys),
		validator: v,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public probes
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Long-lived, so outside the request timeout
	if s.deps.Stream != nil {
		r.Get("/history/stream", s.handleHistoryStream)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/history", s.handleHistory)
		r.Get("/roles", s.handleRoles)
		r.Get("/role_insights", s.handleRoleInsights)
		r.Get("/download/{id}", s.handleDownload)

		// Analyses, protected when API keys are configured
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Authenticate)

			r.Post("/analyze", s.handleAnalyze)
			r.Post("/analyze_file", s.handleAnalyzeFile)
			r.Post("/code/analyze", s.handleCodeAnalyze)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// jsonFieldName makes validation errors name fields as clients send them
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
