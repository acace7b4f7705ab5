// Package server is the reference data server: it ingests descriptors into
// the store and answers graph, table and export queries over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/matsen/depviz/internal/depgraph"
	"github.com/matsen/depviz/internal/store"
)

// DefaultMaxUploadBytes bounds one multipart upload.
const DefaultMaxUploadBytes = 32 << 20

// Server serves the depviz HTTP API.
type Server struct {
	db             *store.DB
	logger         *slog.Logger
	allowedOrigin  string
	maxUploadBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedOrigin sets the CORS allowed origin. The default is "*".
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.allowedOrigin = origin
		}
	}
}

// WithMaxUploadBytes bounds the size of one upload request.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// New creates a server over db.
func New(db *store.DB, opts ...Option) *Server {
	s := &Server{
		db:             db,
		logger:         slog.New(discardHandler{}),
		allowedOrigin:  "*",
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/artifacts", s.handleArtifacts)
	mux.HandleFunc("GET /api/graph/data", s.handleGraphData)
	mux.HandleFunc("GET /api/dependencies/table", s.handleDependencyTable)
	mux.HandleFunc("GET /api/dependencies/export", s.handleDependencyExport)
	mux.HandleFunc("GET /export/{file}", s.handleTableExport)
	return s.logRequests(Cors(s.allowedOrigin, mux))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	artifacts, edges, err := s.db.Counts(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"artifacts": artifacts,
		"edges":     edges,
	})
}

// loadEdges reads the atomic graph restricted to scopes.
func (s *Server) loadEdges(ctx context.Context, scopes []string) ([]string, []depgraph.Edge, error) {
	arts, err := s.db.Artifacts(ctx, 0)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.db.Edges(ctx, scopes)
	if err != nil {
		return nil, nil, err
	}
	nodes := make([]string, len(arts))
	for i, a := range arts {
		nodes[i] = a.GAV
	}
	edges := make([]depgraph.Edge, len(stored))
	for i, e := range stored {
		edges[i] = depgraph.Edge{From: e.FromGAV, To: e.ToGAV, Scope: e.Scope, Optional: e.OptionalSet()}
	}
	return nodes, edges, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "elapsed", time.Since(start))
	})
}

// Cors allows cross-origin requests from origin and answers preflights.
func Cors(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
