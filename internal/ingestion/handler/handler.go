package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/logger"
)

// maxBodyBytes bounds a single ingest request body.
const maxBodyBytes = 1 << 20

// Ingester is implemented by publisher.Publisher and publisher.Direct.
type Ingester interface {
	Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error)
}

type Handler struct {
	ingester Ingester
	logger   *slog.Logger
}

func New(ing Ingester) *Handler {
	return &Handler{
		ingester: ing,
		logger:   slog.Default().With("component", "ingestion-handler"),
	}
}

// Ingest handles POST /api/v1/documents. It answers 201 when the document
// was indexed and 202 when it was queued.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req ingestion.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.ingester.Ingest(ctx, &req)
	if err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"reason": validationErr.Reason,
				"word":   validationErr.Word,
			})
			return
		}
		statusCode := apperrors.HTTPStatusCode(err)
		if statusCode >= http.StatusInternalServerError {
			log.Error("ingestion failed", "doc_id", req.ID, "error", err)
			h.writeError(w, statusCode, "ingestion failed")
			return
		}
		log.Debug("document rejected", "doc_id", req.ID, "status_code", statusCode, "error", err)
		h.writeError(w, statusCode, err.Error())
		return
	}

	log.Info("document accepted",
		"doc_id", resp.DocumentID,
		"status", resp.Status,
	)
	code := http.StatusCreated
	if resp.Status == ingestion.ResponseQueued {
		code = http.StatusAccepted
	}
	h.writeJSON(w, code, resp)
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
