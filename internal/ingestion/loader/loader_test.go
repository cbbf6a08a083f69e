package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
)

type sliceSource struct {
	rows []postgres.DocumentRow
	err  error
}

func (s sliceSource) Each(ctx context.Context, fn func(postgres.DocumentRow) error) error {
	for _, r := range s.rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return s.err
}

func newService(t *testing.T) *service.Service {
	t.Helper()
	engine, err := indexer.New(indexer.WithStopWordsText("и в на"))
	require.NoError(t, err)
	svc, err := service.New(engine)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestLoadPreservesOrderAndSkipsRejected(t *testing.T) {
	svc := newService(t)
	src := sliceSource{rows: []postgres.DocumentRow{
		{ID: 3, Body: "белый кот", Status: "ACTUAL", Ratings: []int{1}},
		{ID: 1, Body: "пушистый пёс", Status: "banned", Ratings: []int{2, 4}},
		{ID: 3, Body: "дубликат", Status: "ACTUAL"},
		{ID: 7, Body: "скворец", Status: "UNKNOWN"},
		{ID: 8, Body: "плохой\x12текст", Status: "ACTUAL"},
		{ID: 2, Body: "модный ошейник", Status: "ACTIVE"},
	}}

	res, err := Load(context.Background(), src, svc)
	require.NoError(t, err)
	assert.Equal(t, Result{Loaded: 3, Rejected: 3}, res)

	var got []index.DocumentID
	for i := 0; i < svc.GetDocumentCount(); i++ {
		id, err := svc.GetDocumentID(i)
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []index.DocumentID{3, 1, 2}, got)

	m, err := svc.MatchDocument("пёс", 1)
	require.NoError(t, err)
	assert.Equal(t, store.StatusBanned, m.Status)
}

func TestLoadSourceError(t *testing.T) {
	svc := newService(t)
	boom := errors.New("connection reset")
	_, err := Load(context.Background(), sliceSource{err: boom}, svc)
	assert.ErrorIs(t, err, boom)
}

func TestLoadCancelled(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, sliceSource{rows: []postgres.DocumentRow{{ID: 1, Body: "кот", Status: "ACTUAL"}}}, svc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, svc.GetDocumentCount())
}
