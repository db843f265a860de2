package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oss-sentinel/sentinel/internal/history"
	"github.com/oss-sentinel/sentinel/internal/httpapi/middleware"
	"github.com/oss-sentinel/sentinel/internal/query"
)

// Server is the optional read-only JSON surface over the query service.
// It never writes to the history store.
type Server struct {
	Logger  *zap.Logger
	Queries *query.Service

	// Rate limiting knobs; zero RequestsPerMinute disables limiting.
	RequestsPerMinute int
	Burst             int
}

func NewServer(l *zap.Logger, q *query.Service, rpm, burst int) *Server {
	return &Server{Logger: l, Queries: q, RequestsPerMinute: rpm, Burst: burst}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(s.RequestsPerMinute, s.Burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/logs", s.handleLogs)
	r.Get("/api/summary", s.handleSummary)
	r.Get("/api/failures", s.handleFailures)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	rows, err := s.Queries.Logs(r.Context(), limit)
	if err != nil {
		s.queryError(w, "logs", err)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Queries.Summary(r.Context())
	if err != nil {
		s.queryError(w, "summary", err)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	rows, err := s.Queries.Failures(r.Context(), limit)
	if err != nil {
		s.queryError(w, "failures", err)
		return
	}
	writeJSON(w, rows)
}

// parseLimit reads ?limit=; absent means 0, which lets the query
// service apply its configured default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func (s *Server) queryError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, history.ErrNotInitialized) {
		http.Error(w, "no monitoring data yet; run the monitor first", http.StatusServiceUnavailable)
		return
	}
	s.Logger.Error("query_error", zap.String("op", op), zap.Error(err))
	http.Error(w, "query failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
