// Package loader seeds the search service from stored documents at startup.
package loader

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
)

// Source yields stored documents in insertion order. It is satisfied by
// *postgres.DocumentStore.
type Source interface {
	Each(ctx context.Context, fn func(postgres.DocumentRow) error) error
}

// DocumentAdder is satisfied by *service.Service.
type DocumentAdder interface {
	AddDocument(ctx context.Context, id index.DocumentID, text string, status store.Status, ratings []int) error
}

// Result counts what a Load did.
type Result struct {
	Loaded   int
	Rejected int
}

// Load adds every row from src to dst. Rows the engine rejects (bad status,
// invalid text, duplicate id) are logged and skipped; only source and context
// errors abort the load.
func Load(ctx context.Context, src Source, dst DocumentAdder) (Result, error) {
	logger := slog.Default().With("component", "loader")
	var res Result
	err := src.Each(ctx, func(row postgres.DocumentRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		status, err := store.ParseStatus(row.Status)
		if err != nil {
			res.Rejected++
			logger.Warn("skipping document", "doc_id", row.ID, "error", err)
			return nil
		}
		if err := dst.AddDocument(ctx, index.DocumentID(row.ID), row.Body, status, row.Ratings); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.Rejected++
			logger.Warn("skipping document", "doc_id", row.ID, "error", err)
			return nil
		}
		res.Loaded++
		return nil
	})
	if err != nil {
		return res, err
	}
	logger.Info("documents loaded", "loaded", res.Loaded, "rejected", res.Rejected)
	return res, nil
}
