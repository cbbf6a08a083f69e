// Package ingestion defines the request and event types exchanged between the
// ingestion HTTP handler, the Kafka publisher and the index consumer.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
)

// IngestRequest is the JSON body accepted by POST /api/v1/documents.
type IngestRequest struct {
	ID      index.DocumentID `json:"id"`
	Text    string           `json:"text"`
	Status  store.Status     `json:"status"`
	Ratings []int            `json:"ratings"`
}

// IngestResponse reports where an accepted document went. Status is
// "INDEXED" when applied directly and "QUEUED" when published to Kafka.
type IngestResponse struct {
	DocumentID index.DocumentID `json:"document_id"`
	Status     string           `json:"status"`
}

// IngestEvent is the Kafka message produced for each accepted document.
type IngestEvent struct {
	DocumentID index.DocumentID `json:"document_id"`
	Text       string           `json:"text"`
	Status     store.Status     `json:"status"`
	Ratings    []int            `json:"ratings"`
	IngestedAt time.Time        `json:"ingested_at"`
}

const (
	ResponseIndexed = "INDEXED"
	ResponseQueued  = "QUEUED"
)
