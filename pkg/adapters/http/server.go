package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes stored traces over HTTP.
type Server struct {
	Store  ports.TraceStore
	Logger *slog.Logger
}

// Option configures the handler.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics serves the metrics of gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(c *config) {
		c.gatherer = gatherer
	}
}

// NewHandler creates the HTTP handler for a trace store.
//
//	GET    /traces            list trace IDs
//	GET    /traces/{id}       trace as JSON
//	GET    /traces/{id}/text  operator view of the trace
//	DELETE /traces/{id}       remove a trace
//	GET    /metrics           Prometheus metrics (WithMetrics)
func NewHandler(store ports.TraceStore, opts ...Option) http.Handler {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	server := &Server{Store: store, Logger: cfg.logger}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/traces", func(r chi.Router) {
		r.Get("/", server.ListTraces)
		r.Get("/{id}", server.GetTrace)
		r.Get("/{id}/text", server.GetTraceText)
		r.Delete("/{id}", server.DeleteTrace)
	})
	if cfg.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListTraces handles GET /traces.
func (s *Server) ListTraces(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("List traces failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, map[string]any{"traces": ids})
}

// GetTrace handles GET /traces/{id}.
func (s *Server) GetTrace(w http.ResponseWriter, r *http.Request) {
	trace, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, trace)
}

// GetTraceText handles GET /traces/{id}/text.
func (s *Server) GetTraceText(w http.ResponseWriter, r *http.Request) {
	trace, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(trace.String())); err != nil {
		s.Logger.Error("Trace text write failed", "err", err)
	}
}

// DeleteTrace handles DELETE /traces/{id}.
func (s *Server) DeleteTrace(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Delete trace failed", "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*domain.Trace, bool) {
	id := chi.URLParam(r, "id")
	trace, err := s.Store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrTraceNotFound) {
		http.Error(w, "Trace not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Load trace failed", "trace_id", id, "err", err)
		return nil, false
	}
	return trace, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}
