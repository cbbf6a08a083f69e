// Package consumer applies ingest events read from Kafka to the search
// service.
package consumer

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

// DocumentAdder is satisfied by *service.Service.
type DocumentAdder interface {
	AddDocument(ctx context.Context, id index.DocumentID, text string, status store.Status, ratings []int) error
}

// Runner is satisfied by *kafka.Consumer.
type Runner interface {
	Start(ctx context.Context) error
}

type IndexConsumer struct {
	runner Runner
	logger *slog.Logger
}

func New(runner Runner) *IndexConsumer {
	return &IndexConsumer{
		runner: runner,
		logger: slog.Default().With("component", "index-consumer"),
	}
}

// Start consumes until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.runner.Start(ctx)
}

// HandleMessage returns a kafka.MessageHandler that adds each ingest event to
// svc. Undecodable events and events the engine rejects as bad input are
// logged and committed, since redelivery cannot fix them. Other failures
// leave the message uncommitted. m may be nil.
func HandleMessage(svc DocumentAdder, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	count := func(outcome string) {
		if m != nil {
			m.IngestEventsTotal.WithLabelValues(outcome).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			count("malformed")
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		err = svc.AddDocument(ctx, event.DocumentID, event.Text, event.Status, event.Ratings)
		switch {
		case err == nil:
			count("indexed")
			logger.Debug("document indexed",
				"doc_id", event.DocumentID,
				"ingested_at", event.IngestedAt,
			)
			return nil
		case apperrors.IsInputError(err):
			count("rejected")
			logger.Warn("ingest event rejected",
				"doc_id", event.DocumentID,
				"error", err,
			)
			return nil
		default:
			count("failed")
			return err
		}
	}
}
