package publisher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
)

type recordingProducer struct {
	events []kafka.Event
	err    error
}

func (p *recordingProducer) Publish(_ context.Context, event kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// txRecorder keeps a row only when the follow-up step succeeds, like
// postgres.DocumentStore.InsertThen.
type txRecorder struct {
	rows map[int64]postgres.DocumentRow
}

func (r *txRecorder) InsertThen(ctx context.Context, row postgres.DocumentRow, then func(ctx context.Context) error) error {
	if _, ok := r.rows[row.ID]; ok {
		return fmt.Errorf("%w: id %d", apperrors.ErrDocumentExists, row.ID)
	}
	if err := then(ctx); err != nil {
		return err
	}
	r.rows[row.ID] = row
	return nil
}

func TestPublisherIngest(t *testing.T) {
	producer := &recordingProducer{}
	pub := New(nil, producer)

	resp, err := pub.Ingest(context.Background(), &ingestion.IngestRequest{
		ID:      4,
		Text:    "ухоженный скворец евгений",
		Status:  store.StatusBanned,
		Ratings: []int{9},
	})
	require.NoError(t, err)
	assert.Equal(t, &ingestion.IngestResponse{DocumentID: 4, Status: ingestion.ResponseQueued}, resp)

	require.Len(t, producer.events, 1)
	assert.Equal(t, OrderingKey, producer.events[0].Key)
	event, ok := producer.events[0].Value.(ingestion.IngestEvent)
	require.True(t, ok)
	assert.EqualValues(t, 4, event.DocumentID)
	assert.Equal(t, store.StatusBanned, event.Status)
	assert.Equal(t, []int{9}, event.Ratings)
	assert.False(t, event.IngestedAt.IsZero())
}

func TestPublisherRejectsBeforePublishing(t *testing.T) {
	producer := &recordingProducer{}
	pub := New(nil, producer)
	ctx := context.Background()

	_, err := pub.Ingest(ctx, &ingestion.IngestRequest{ID: -1, Text: "кот"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDocumentID)

	_, err = pub.Ingest(ctx, &ingestion.IngestRequest{ID: 1, Text: "кот --пёс"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = pub.Ingest(ctx, &ingestion.IngestRequest{ID: 1, Text: "кот\x01"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Empty(t, producer.events)
}

func TestPublisherProducerFailure(t *testing.T) {
	boom := errors.New("broker unavailable")
	pub := New(nil, &recordingProducer{err: boom})
	_, err := pub.Ingest(context.Background(), &ingestion.IngestRequest{ID: 1, Text: "кот"})
	assert.ErrorIs(t, err, boom)
}

func TestPublisherProducerFailureRecordsNothing(t *testing.T) {
	boom := errors.New("broker unavailable")
	producer := &recordingProducer{err: boom}
	recorder := &txRecorder{rows: map[int64]postgres.DocumentRow{}}
	pub := New(nil, producer)
	pub.docs = recorder
	ctx := context.Background()
	req := &ingestion.IngestRequest{ID: 1, Text: "кот", Ratings: []int{4}}

	_, err := pub.Ingest(ctx, req)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, recorder.rows)
	assert.Empty(t, producer.events)

	producer.err = nil
	resp, err := pub.Ingest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ingestion.ResponseQueued, resp.Status)
	assert.Len(t, recorder.rows, 1)
	assert.Len(t, producer.events, 1)

	_, err = pub.Ingest(ctx, req)
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
	assert.Len(t, producer.events, 1)
}

func TestDirectIngest(t *testing.T) {
	engine, err := indexer.New()
	require.NoError(t, err)
	svc, err := service.New(engine)
	require.NoError(t, err)
	defer svc.Close()

	d := NewDirect(svc, nil)
	ctx := context.Background()

	resp, err := d.Ingest(ctx, &ingestion.IngestRequest{ID: 1, Text: "кот", Ratings: []int{3}})
	require.NoError(t, err)
	assert.Equal(t, ingestion.ResponseIndexed, resp.Status)
	assert.Equal(t, 1, svc.GetDocumentCount())

	_, err = d.Ingest(ctx, &ingestion.IngestRequest{ID: 1, Text: "пёс"})
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
	assert.Equal(t, 1, svc.GetDocumentCount())
}
