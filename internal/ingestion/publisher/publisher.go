// Package publisher accepts ingest requests. Publisher records documents in
// PostgreSQL (when configured) and publishes ingest events to Kafka for the
// index consumer; Direct applies them to the local search service at once.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
)

// EventProducer is satisfied by *kafka.Producer.
type EventProducer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// DocumentRecorder is satisfied by *postgres.DocumentStore.
type DocumentRecorder interface {
	InsertThen(ctx context.Context, row postgres.DocumentRow, then func(ctx context.Context) error) error
}

// Publisher queues documents for asynchronous indexing.
type Publisher struct {
	docs     DocumentRecorder
	producer EventProducer
	logger   *slog.Logger
}

// New creates a Publisher. docs may be nil when PostgreSQL is disabled.
func New(docs *postgres.DocumentStore, producer EventProducer) *Publisher {
	p := &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
	if docs != nil {
		p.docs = docs
	}
	return p
}

// OrderingKey is the partition key of every ingest event. A single key keeps
// all documents on one partition, so the consumer adds them in publish order
// and enumeration order matches acceptance order.
const OrderingKey = "documents"

// Ingest rejects malformed requests, records the document and publishes an
// IngestEvent. With PostgreSQL the row is committed only after the event is
// published, so a failed publish leaves nothing behind and the request may
// be retried. Duplicate ids are detected here only when PostgreSQL is
// enabled; otherwise the consumer rejects them.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if err := precheck(req); err != nil {
		return nil, err
	}
	if p.docs == nil {
		if err := p.publish(ctx, req); err != nil {
			return nil, err
		}
	} else {
		row := postgres.DocumentRow{
			ID:      int64(req.ID),
			Body:    req.Text,
			Status:  req.Status.String(),
			Ratings: req.Ratings,
		}
		err := p.docs.InsertThen(ctx, row, func(ctx context.Context) error {
			return p.publish(ctx, req)
		})
		if err != nil {
			return nil, fmt.Errorf("recording document %d: %w", req.ID, err)
		}
	}
	return &ingestion.IngestResponse{
		DocumentID: req.ID,
		Status:     ingestion.ResponseQueued,
	}, nil
}

func (p *Publisher) publish(ctx context.Context, req *ingestion.IngestRequest) error {
	event := kafka.Event{
		Key: OrderingKey,
		Value: ingestion.IngestEvent{
			DocumentID: req.ID,
			Text:       req.Text,
			Status:     req.Status,
			Ratings:    req.Ratings,
			IngestedAt: time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish ingest event",
			"doc_id", req.ID,
			"error", err,
		)
		return fmt.Errorf("publishing document %d: %w", req.ID, err)
	}
	return nil
}

// precheck applies the checks that do not need engine state so bad requests
// fail before anything is recorded or queued.
func precheck(req *ingestion.IngestRequest) error {
	if req.ID < 0 {
		return fmt.Errorf("%w: %d is negative", apperrors.ErrInvalidDocumentID, req.ID)
	}
	if err := validator.ValidateText(req.Text); err != nil {
		return fmt.Errorf("document %d: %w", req.ID, err)
	}
	return nil
}
