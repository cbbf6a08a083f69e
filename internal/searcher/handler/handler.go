package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
)

// SearchResponse is the body of GET /api/v1/search.
type SearchResponse struct {
	Query    string            `json:"query"`
	Status   store.Status      `json:"status"`
	Results  []ranker.Document `json:"results"`
	CacheHit bool              `json:"cache_hit"`
	TookMs   int64             `json:"took_ms"`
}

// MatchResponse is the body of GET /api/v1/match.
type MatchResponse struct {
	Query     string                `json:"query"`
	Documents []service.MatchResult `json:"documents"`
}

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=...&status=...&min_rating=... The
// status defaults to ACTUAL. An empty q is a valid query with no results.
// min_rating switches to an uncached predicate search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	status := store.StatusActual
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := store.ParseStatus(s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	var (
		results  []ranker.Document
		cacheHit bool
		err      error
	)
	if v := r.URL.Query().Get("min_rating"); v != "" {
		minRating, convErr := strconv.Atoi(v)
		if convErr != nil {
			h.writeError(w, http.StatusBadRequest, "min_rating must be an integer")
			return
		}
		results, err = h.svc.FindTopDocumentsFunc(query, func(_ index.DocumentID, s store.Status, rating int) bool {
			return s == status && rating >= minRating
		})
	} else {
		results, cacheHit, err = h.svc.FindTopDocuments(ctx, query, status)
	}
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	took := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", query,
		"status", status,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", took,
	)
	h.writeJSON(w, http.StatusOK, &SearchResponse{
		Query:    query,
		Status:   status,
		Results:  nonNil(results),
		CacheHit: cacheHit,
		TookMs:   took,
	})
}

// MatchDocument handles GET /api/v1/match/{id}?q=...
func (h *Handler) MatchDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathDocumentID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.MatchDocument(r.URL.Query().Get("q"), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// MatchDocuments handles GET /api/v1/match?q=... and matches the query
// against every document in insertion order.
func (h *Handler) MatchDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	rows, err := h.svc.MatchDocuments(r.Context(), query)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &MatchResponse{Query: query, Documents: rows})
}

// ListDocuments handles GET /api/v1/documents and returns ids in insertion
// order.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	count := h.svc.GetDocumentCount()
	ids := make([]index.DocumentID, 0, count)
	for i := 0; i < count; i++ {
		id, err := h.svc.GetDocumentID(i)
		if err != nil {
			break
		}
		ids = append(ids, id)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(ids),
		"ids":   ids,
	})
}

// DocumentAt handles GET /api/v1/documents/at/{ordinal}.
func (h *Handler) DocumentAt(w http.ResponseWriter, r *http.Request) {
	ordinal, err := strconv.Atoi(r.PathValue("ordinal"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "ordinal must be an integer")
		return
	}
	id, err := h.svc.GetDocumentID(ordinal)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ordinal":     ordinal,
		"document_id": id,
	})
}

// Terms handles GET /api/v1/terms and dumps the inverted index.
func (h *Handler) Terms(w http.ResponseWriter, r *http.Request) {
	terms := h.svc.Terms()
	if terms == nil {
		terms = []index.TermEntry{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(terms),
		"terms": terms,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	qc := h.svc.Cache()
	if qc == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := qc.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.svc.Cache() == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.svc.InvalidateCache(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "error", err)
		h.writeError(w, status, "internal error")
		return
	}
	log.Debug("request rejected", "path", r.URL.Path, "status_code", status, "error", err)
	h.writeError(w, status, err.Error())
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

func pathDocumentID(r *http.Request, name string) (index.DocumentID, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("document id must be an integer")
	}
	return index.DocumentID(n), nil
}

func nonNil(docs []ranker.Document) []ranker.Document {
	if docs == nil {
		return []ranker.Document{}
	}
	return docs
}
