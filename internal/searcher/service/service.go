// Package service makes an indexer.Engine safe for concurrent callers.
// Writers are serialized with an RWMutex; searches, matches and enumeration
// share the read lock. Status searches may be served from a result cache.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
)

// MatchResult is the outcome of matching a query against one document.
type MatchResult struct {
	DocumentID index.DocumentID `json:"document_id"`
	Terms      []string         `json:"terms"`
	Status     store.Status     `json:"status"`
}

// Stats summarizes the engine contents.
type Stats struct {
	Documents  int      `json:"documents"`
	Terms      int      `json:"terms"`
	StopWords  []string `json:"stop_words"`
	MaxResults int      `json:"max_results"`
}

type Service struct {
	mu       sync.RWMutex
	engine   *indexer.Engine
	cache    *cache.QueryCache
	instance string
	pool     *ants.Pool
	poolSize int
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithCache serves FindTopDocuments by status through c.
func WithCache(c *cache.QueryCache) Option {
	return func(s *Service) error {
		s.cache = c
		return nil
	}
}

// WithPoolSize sets the number of workers used by MatchDocuments.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		s.poolSize = size
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// New wraps engine. The caller must not use engine directly afterwards.
func New(engine *indexer.Engine, opts ...Option) (*Service, error) {
	s := &Service{
		engine:   engine,
		poolSize: runtime.NumCPU(),
		instance: uuid.NewString(),
		logger:   slog.Default().With("component", "search-service"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("creating match pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// AddDocument indexes a document under the write lock.
func (s *Service) AddDocument(ctx context.Context, id index.DocumentID, text string, status store.Status, ratings []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.AddDocument(id, text, status, ratings)
}

// FindTopDocuments runs a status search. When a cache is configured the
// result may come from it; cacheHit reports that. Cache keys carry the
// service instance id and the document count, so entries written by another
// process or before an insertion are never served.
//
// The read lock is not held across cache round trips. A search racing an
// insertion may return results computed after it; those are stored under
// the older generation, which this instance never looks up again.
func (s *Service) FindTopDocuments(ctx context.Context, rawQuery string, status store.Status) (results []ranker.Document, cacheHit bool, err error) {
	if s.cache == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		results, err = s.engine.FindTopDocumentsByStatus(rawQuery, status)
		return results, false, err
	}

	s.mu.RLock()
	key := cache.Key{
		Instance:   s.instance,
		Query:      rawQuery,
		Status:     status,
		Generation: s.engine.GetDocumentCount(),
		Limit:      s.engine.MaxResults(),
	}
	s.mu.RUnlock()

	return s.cache.GetOrCompute(ctx, key, func() ([]ranker.Document, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.engine.FindTopDocumentsByStatus(rawQuery, status)
	})
}

// FindTopDocumentsFunc runs a predicate search. Predicate results are never
// cached. pred must not call back into the Service.
func (s *Service) FindTopDocumentsFunc(rawQuery string, pred ranker.Predicate) ([]ranker.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.FindTopDocumentsFunc(rawQuery, pred)
}

func (s *Service) MatchDocument(rawQuery string, id index.DocumentID) (MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	terms, status, err := s.engine.MatchDocument(rawQuery, id)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{DocumentID: id, Terms: terms, Status: status}, nil
}

// MatchDocuments matches rawQuery against every document and returns one row
// per document in insertion order. Documents are matched in parallel on the
// worker pool; the read lock is held throughout.
func (s *Service) MatchDocuments(ctx context.Context, rawQuery string) ([]MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]index.DocumentID, 0, s.engine.GetDocumentCount())
	for id := range s.engine.Documents() {
		ids = append(ids, id)
	}
	if err := validator.ValidateText(rawQuery); err != nil {
		return nil, fmt.Errorf("matching documents: %w", err)
	}

	results := make([]MatchResult, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			terms, status, err := s.engine.MatchDocument(rawQuery, id)
			results[i] = MatchResult{DocumentID: id, Terms: terms, Status: status}
			errs[i] = err
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submitting match task: %w", submitErr)
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	s.logger.Debug("bulk match completed", "query", rawQuery, "documents", len(results))
	return results, nil
}

func (s *Service) GetDocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetDocumentCount()
}

func (s *Service) GetDocumentID(ordinal int) (index.DocumentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetDocumentID(ordinal)
}

// Terms returns a snapshot of the inverted index.
func (s *Service) Terms() []index.TermEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Terms()
}

func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Documents:  s.engine.GetDocumentCount(),
		Terms:      s.engine.TermCount(),
		StopWords:  s.engine.StopWords(),
		MaxResults: s.engine.MaxResults(),
	}
}

// InvalidateCache drops every cached result. It is a no-op without a cache.
func (s *Service) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

// Cache returns the configured cache or nil.
func (s *Service) Cache() *cache.QueryCache {
	return s.cache
}
