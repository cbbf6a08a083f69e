package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
)

// DocumentAdder is satisfied by *service.Service.
type DocumentAdder interface {
	AddDocument(ctx context.Context, id index.DocumentID, text string, status store.Status, ratings []int) error
}

// Direct indexes documents synchronously, without Kafka.
type Direct struct {
	svc    DocumentAdder
	docs   *postgres.DocumentStore
	logger *slog.Logger
}

// NewDirect creates a Direct ingester. docs may be nil.
func NewDirect(svc DocumentAdder, docs *postgres.DocumentStore) *Direct {
	return &Direct{
		svc:    svc,
		docs:   docs,
		logger: slog.Default().With("component", "direct-ingest"),
	}
}

// Ingest adds the document to the engine, then records it in PostgreSQL so it
// is reloaded on restart. A failed insert is logged; the document stays
// indexed.
func (d *Direct) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if err := d.svc.AddDocument(ctx, req.ID, req.Text, req.Status, req.Ratings); err != nil {
		return nil, err
	}
	if d.docs != nil {
		err := d.docs.Insert(ctx, postgres.DocumentRow{
			ID:      int64(req.ID),
			Body:    req.Text,
			Status:  req.Status.String(),
			Ratings: req.Ratings,
		})
		if err != nil {
			d.logger.Error("failed to record document",
				"doc_id", req.ID,
				"error", fmt.Errorf("recording document: %w", err),
			)
		}
	}
	return &ingestion.IngestResponse{
		DocumentID: req.ID,
		Status:     ingestion.ResponseIndexed,
	}, nil
}
