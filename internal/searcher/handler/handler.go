package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/middleware"
)

// paramPrefix marks query-string keys that set model parameters, as in
// p.BM25%20K=1.2.
const paramPrefix = "p."

type SearchExecutor interface {
	Resolve(req executor.Request) (executor.Request, error)
	Execute(ctx context.Context, req executor.Request) (*executor.SearchResult, error)
	Compare(ctx context.Context, req executor.Request, models []string) ([]*executor.SearchResult, error)
	Describe() []retrieval.Description
}

// EventTracker receives one event per search request.
type EventTracker interface {
	Track(event analytics.SearchEvent)
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	tracker  EventTracker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New wires the HTTP API. queryCache, tracker and m may each be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, tracker EventTracker, m *metrics.Metrics) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		tracker:  tracker,
		metrics:  m,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/search/compare", h.Compare)
	mux.HandleFunc("GET /api/v1/models", h.Models)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, err := parseRequest(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	req, err = h.executor.Resolve(req)
	if err != nil {
		h.track(ctx, req, nil, false, start, err)
		h.writeErr(w, err)
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, req)
		})
	} else {
		result, err = h.executor.Execute(ctx, req)
	}
	h.track(ctx, req, result, cacheHit, start, err)
	if err != nil {
		log.Error("search execution failed", "query", req.Query.Raw(), "model", req.Model, "error", err)
		h.writeErr(w, err)
		return
	}

	latency := time.Since(start)
	if cacheHit && h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(req.Model, "hit").Observe(latency.Seconds())
	}
	log.Info("search completed",
		"query", req.Query.Raw(),
		"model", req.Model,
		"mode", req.Mode,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

type compareResponse struct {
	Query   string                    `json:"query"`
	Results []*executor.SearchResult `json:"results"`
}

// Compare runs one query under several models, each at its default
// settings.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	var models []string
	if s := r.URL.Query().Get("models"); s != "" {
		for _, name := range strings.Split(s, ",") {
			if name = strings.TrimSpace(name); name != "" {
				models = append(models, name)
			}
		}
	}
	results, err := h.executor.Compare(r.Context(), req, models)
	if err != nil {
		logger.FromContext(r.Context()).Error("compare failed", "query", req.Query.Raw(), "error", err)
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, compareResponse{Query: req.Query.Raw(), Results: results})
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.executor.Describe())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats(r.Context()))
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// parseRequest reads q, model, mode, limit, ref and p.* parameters.
func parseRequest(r *http.Request) (executor.Request, error) {
	values := r.URL.Query()
	raw := values.Get("q")
	if strings.TrimSpace(raw) == "" {
		return executor.Request{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required")
	}
	q, err := query.Parse(raw)
	if err != nil {
		return executor.Request{}, err
	}

	req := executor.Request{
		Query:           q,
		Model:           values.Get("model"),
		Mode:            values.Get("mode"),
		ReferenceLength: values.Get("ref"),
	}
	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 {
			return executor.Request{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
		}
		req.Limit = limit
	}
	for key, vals := range values {
		name, ok := strings.CutPrefix(key, paramPrefix)
		if !ok || len(vals) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(vals[0], 64)
		if err != nil {
			return executor.Request{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"parameter %q must be a number", name)
		}
		if req.Parameters == nil {
			req.Parameters = make(map[string]float64)
		}
		req.Parameters[name] = v
	}
	return req, nil
}

func (h *Handler) track(ctx context.Context, req executor.Request, result *executor.SearchResult, cacheHit bool, start time.Time, err error) {
	if h.tracker == nil {
		return
	}
	terms := make([]string, 0, req.Query.Len())
	for _, t := range req.Query.Terms() {
		terms = append(terms, t.Term)
	}
	event := analytics.SearchEvent{
		Query:     req.Query.Raw(),
		Model:     req.Model,
		Mode:      req.Mode,
		Terms:     terms,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		CacheHit:  cacheHit,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if result != nil {
		event.TotalHits = result.TotalHits
		event.Returned = len(result.Results)
	}
	event.Type = analytics.TypeOf(event.TotalHits, err)
	h.tracker.Track(event)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "search failed"
	}
	h.writeError(w, status, msg)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
