// Package server exposes the compiler over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /v1/templates
//	GET    /v1/templates/{category}/{template}
//	POST   /v1/templates/{category}/{template}/generate
//	POST   /v1/compile
//	POST   /v1/optimize
//	POST   /v1/templatize
//	POST   /v1/fill
//	POST   /v1/preview
//	GET    /v1/documents
//	GET    /v1/documents/{name}
//	PUT    /v1/documents/{name}
//	DELETE /v1/documents/{name}
//
// Errors are JSON objects {"code": ..., "message": ...} with a status
// derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/pipeline"
	"github.com/matzehuels/zplkit/pkg/store"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

const (
	// DefaultMaxBody bounds request bodies.
	DefaultMaxBody = 1 << 20
	// SessionHeader groups preview requests from one editor.
	SessionHeader = "X-Session-ID"

	shutdownTimeout = 10 * time.Second
)

// Defaults are applied to requests that leave a setting empty.
type Defaults struct {
	Escape       zpl.EscapePolicy
	Substitution zpl.SubstitutionPolicy
	Profile      label.Profile
	Scale        float64
}

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	logger   *log.Logger
	defaults Defaults
	slots    *slotTable
	maxBody  int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets request defaults.
func WithDefaults(d Defaults) Option {
	return func(s *Server) { s.defaults = d }
}

// WithMaxBody sets the request body limit in bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithMaxSessions bounds the number of preview sessions tracked at once.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.slots.max = n
		}
	}
}

// New creates a server. A nil store disables the document routes.
func New(runner *pipeline.Runner, st store.Store, opts ...Option) *Server {
	s := &Server{
		runner:  runner,
		store:   st,
		logger:  runner.Logger,
		slots:   newSlotTable(defaultMaxSessions),
		maxBody: DefaultMaxBody,
		defaults: Defaults{
			Escape:       pipeline.DefaultEscape,
			Substitution: pipeline.DefaultSubstitution,
			Profile:      label.DefaultProfile(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{category}/{template}", s.handleGetTemplate)
		r.Post("/templates/{category}/{template}/generate", s.handleGenerate)

		r.Post("/compile", s.handleCompile)
		r.Post("/optimize", s.handleOptimize)
		r.Post("/templatize", s.handleTemplatize)
		r.Post("/fill", s.handleFill)
		r.Post("/preview", s.handlePreview)

		r.Route("/documents", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/", s.handleListDocuments)
			r.Get("/{name}", s.handleGetDocument)
			r.Put("/{name}", s.handlePutDocument)
			r.Delete("/{name}", s.handleDeleteDocument)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// registry returns the runner's catalog.
func (s *Server) registry() (*catalog.Registry, error) {
	if s.runner.Registry != nil {
		return s.runner.Registry, nil
	}
	return catalog.Default()
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logFn := s.logger.Info
		if status >= http.StatusInternalServerError {
			logFn = s.logger.Error
		}
		logFn("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeJSON(w, http.StatusNotImplemented, errorBody{Code: "UNSUPPORTED", Message: "document store is not configured"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
