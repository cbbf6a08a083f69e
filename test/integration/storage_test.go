//go:build integration

// Package integration contains tests that run the storage and cache layers
// against real PostgreSQL and Redis instances. Tests skip when a dependency
// is unreachable.
//
// Run with:
//
//	go test -v -tags=integration ./test/integration/...
package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(context.Background(), testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewClient(context.Background(), config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		DB:       envOrDefaultInt("TEST_REDIS_DB", 15),
		PoolSize: 4,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "searchserver_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "searchserver"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// newDocumentStore creates a throwaway documents table.
func newDocumentStore(t *testing.T, db *postgres.Client) *postgres.DocumentStore {
	t.Helper()
	table := fmt.Sprintf("documents_it_%d", time.Now().UnixNano())
	docs := postgres.NewDocumentStore(db, table)
	require.NoError(t, docs.EnsureSchema(context.Background()))
	t.Cleanup(func() {
		db.DB.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table))
	})
	return docs
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	db := skipIfNoPostgres(t)
	docs := newDocumentStore(t, db)
	ctx := context.Background()

	rows := []postgres.DocumentRow{
		{ID: 7, Body: "пушистый кот пушистый хвост", Status: "ACTUAL", Ratings: []int{7, 2, 7}},
		{ID: 2, Body: "ухоженный пёс выразительные глаза", Status: "BANNED", Ratings: []int{5, -12, 2, 1}},
		{ID: 5, Body: "белый кот и модный ошейник", Status: "ACTUAL", Ratings: nil},
	}
	for _, row := range rows {
		require.NoError(t, docs.Insert(ctx, row))
	}

	err := docs.Insert(ctx, postgres.DocumentRow{ID: 2, Body: "кот", Status: "ACTUAL"})
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)

	var got []postgres.DocumentRow
	require.NoError(t, docs.Each(ctx, func(row postgres.DocumentRow) error {
		got = append(got, row)
		return nil
	}))
	require.Len(t, got, 3)
	assert.Equal(t, []int64{7, 2, 5}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, []int{5, -12, 2, 1}, got[1].Ratings)
	assert.Empty(t, got[2].Ratings)
}

func TestDocumentStoreInsertThenRollsBack(t *testing.T) {
	db := skipIfNoPostgres(t)
	docs := newDocumentStore(t, db)
	ctx := context.Background()
	row := postgres.DocumentRow{ID: 3, Body: "модный кот", Status: "ACTUAL", Ratings: []int{1}}

	boom := errors.New("broker unavailable")
	err := docs.InsertThen(ctx, row, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	count := 0
	require.NoError(t, docs.Each(ctx, func(postgres.DocumentRow) error {
		count++
		return nil
	}))
	assert.Zero(t, count)

	require.NoError(t, docs.InsertThen(ctx, row, func(context.Context) error { return nil }))
	err = docs.InsertThen(ctx, row, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
}

func TestLoaderSeedsService(t *testing.T) {
	db := skipIfNoPostgres(t)
	docs := newDocumentStore(t, db)
	ctx := context.Background()

	require.NoError(t, docs.Insert(ctx, postgres.DocumentRow{ID: 1, Body: "пушистый кот пушистый хвост", Status: "ACTUAL", Ratings: []int{7, 2, 7}}))
	require.NoError(t, docs.Insert(ctx, postgres.DocumentRow{ID: 0, Body: "белый кот и модный ошейник", Status: "ACTUAL", Ratings: []int{8, -3}}))
	require.NoError(t, docs.Insert(ctx, postgres.DocumentRow{ID: 3, Body: "--кот", Status: "ACTUAL"}))
	require.NoError(t, docs.Insert(ctx, postgres.DocumentRow{ID: 4, Body: "кот", Status: "LOST"}))

	engine, err := indexer.New(indexer.WithStopWordsText("и в на"))
	require.NoError(t, err)
	svc, err := service.New(engine)
	require.NoError(t, err)
	defer svc.Close()

	res, err := loader.Load(ctx, docs, svc)
	require.NoError(t, err)
	assert.Equal(t, loader.Result{Loaded: 2, Rejected: 2}, res)

	first, err := svc.GetDocumentID(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	results, _, err := svc.FindTopDocuments(ctx, "пушистый кот", store.StatusActual)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.EqualValues(t, 1, results[0].ID)
}

func TestRedisQueryCache(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()
	qc := cache.New(client, time.Minute, nil)
	require.NoError(t, qc.Invalidate(ctx))

	key := cache.Key{Query: "пушистый кот", Status: store.StatusActual, Generation: 3, Limit: 5}
	_, ok := qc.Get(ctx, key)
	assert.False(t, ok)

	want := []ranker.Document{{ID: 1, Relevance: 0.650672, Rating: 5}}
	qc.Set(ctx, key, want)
	got, ok := qc.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, want, got)

	stale := key
	stale.Generation = 4
	_, ok = qc.Get(ctx, stale)
	assert.False(t, ok)

	require.NoError(t, qc.Invalidate(ctx))
	_, ok = qc.Get(ctx, key)
	assert.False(t, ok)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
