package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/intel-radar/backend/internal/config"
	"github.com/DeafMist/intel-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

const maxQueryBody = 64 << 10

type digester interface {
	Run(ctx context.Context, query string) models.Response
}

type interactionSearcher interface {
	SearchInteractions(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
}

type server struct {
	log     *slog.Logger
	cfg     *config.API
	digest  digester
	healthz func(context.Context) error
	// history is nil unless interactions are logged to Elasticsearch.
	history interactionSearcher
}

type errorResponse struct {
	Error string `json:"error"`
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/interactions", s.handleInteractions)
	r.With(middleware.Timeout(s.cfg.RequestTimeout)).Post("/query", s.handleQuery)
	return r
}

// cors allows any origin; the API is meant to sit behind a browser frontend.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "intel-radar digest API is running"})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.healthz != nil {
		if err := s.healthz(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Failure("request body must be JSON with a query field"))
		return
	}

	resp := s.digest.Run(r.Context(), req.Query)
	status := http.StatusOK
	if resp.Status == models.StatusError {
		status = http.StatusBadRequest
	}
	s.log.Debug("query served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("status", resp.Status),
	)
	writeJSON(w, status, resp)
}

func (s *server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "interaction search needs LOG_BACKEND=elasticsearch"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query: strings.TrimSpace(q.Get("q")),
		Kind:  models.InteractionKind(strings.TrimSpace(q.Get("kind"))),
		Mode:  models.Mode(strings.TrimSpace(q.Get("mode"))),
		RunID: strings.TrimSpace(q.Get("run_id")),
		From:  clampInt(q.Get("from"), 0, 10_000),
		Size:  clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:  strings.TrimSpace(q.Get("sort")),
		Start: parseTime(q.Get("start")),
		End:   parseTime(q.Get("end")),
	}

	result, err := s.history.SearchInteractions(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
