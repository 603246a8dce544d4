// Package api exposes the read-only HTTP interface over collected insights.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amishk599/insightd/internal/metrics"
	"github.com/amishk599/insightd/internal/model"
)

const (
	defaultInsightLimit = 50
	maxInsightLimit     = 500
	requestTimeout      = 30 * time.Second
)

// Store is everything the HTTP surface reads.
type Store interface {
	model.InsightStore
	model.KeywordStore
	model.StructuredStore
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the store.
type Server struct {
	router chi.Router
	store  Store
	logger *slog.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store Store, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/ping", s.ping)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/keywords", s.listKeywords)
		r.Route("/insights", func(r chi.Router) {
			r.Get("/", s.listInsights)
			r.Get("/visa-info", s.listVisaInfo)
			r.Get("/culture-info", s.listCultureInfo)
			r.Get("/industry-info", s.listIndustryInfo)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("ping failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ping": "pong"})
}

func (s *Server) listKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := s.store.ListKeywords(r.Context())
	if err != nil {
		s.serverError(w, "list keywords", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(keywords))
}

// listInsights handles GET /v1/insights?category=&search_word=&limit=&offset=.
func (s *Server) listInsights(w http.ResponseWriter, r *http.Request) {
	f, err := parseInsightFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	insights, err := s.store.ListInsights(r.Context(), f)
	if err != nil {
		s.serverError(w, "list insights", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"insights": nonNil(insights),
		"limit":    f.Limit,
		"offset":   f.Offset,
	})
}

func (s *Server) listVisaInfo(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListVisaInfo(r.Context())
	if err != nil {
		s.serverError(w, "list visa info", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (s *Server) listCultureInfo(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListCultureInfo(r.Context())
	if err != nil {
		s.serverError(w, "list culture info", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (s *Server) listIndustryInfo(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListIndustryInfo(r.Context())
	if err != nil {
		s.serverError(w, "list industry info", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "request timed out")
		return
	}
	s.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to "+op)
}

func parseInsightFilter(r *http.Request) (model.InsightFilter, error) {
	q := r.URL.Query()
	f := model.InsightFilter{
		SearchWord: strings.TrimSpace(q.Get("search_word")),
		Limit:      defaultInsightLimit,
	}
	if raw := q.Get("category"); raw != "" {
		cat, ok := model.ParseCategory(raw)
		if !ok {
			return f, fmt.Errorf("unknown category %q", raw)
		}
		f.Category = cat
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = min(n, maxInsightLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, errors.New("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("write JSON failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
