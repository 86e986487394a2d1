package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/history"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	requestTimeout     = 2 * time.Minute
	serverReadTimeout  = 30 * time.Second
	serverWriteTimeout = requestTimeout + 10*time.Second
	serverIdleTimeout  = 2 * time.Minute
	shutdownTimeout    = 10 * time.Second

	// maxUploadBytes caps the size of an uploaded export.
	maxUploadBytes = 32 << 20
)

// Server serves the processing API over HTTP.
type Server struct {
	Router   *chi.Mux
	analyzer *analysis.Analyzer
	history  *history.Store
	mermaid  bool
	version  string
}

// NewServer creates the server and its routes. store may be nil.
func NewServer(analyzer *analysis.Analyzer, store *history.Store, mermaid bool, version string) *Server {
	s := &Server{
		analyzer: analyzer,
		history:  store,
		mermaid:  mermaid,
		version:  version,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.healthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/process", s.processExport)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
		r.Get("/runs/{id}/report", s.getReport)
	})

	s.Router = r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
