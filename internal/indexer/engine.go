// Package indexer provides Engine, the search server core: it ingests
// documents into the document store and inverted index, ranks free-text
// queries with TF-IDF and matches queries against single documents.
//
// An Engine is not safe for concurrent use. Concurrent callers go through
// internal/searcher/service, which serializes writers.
package indexer

import (
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
)

type Engine struct {
	stopWords  tokenizer.StopWords
	memIndex   *index.MemoryIndex
	docs       *store.Store
	maxResults int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures an Engine.
type Option func(*engineOptions) error

type engineOptions struct {
	stopWords  []string
	maxResults int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// WithStopWords sets the stop words from a collection. Words containing
// control characters make New fail.
func WithStopWords(words []string) Option {
	return func(o *engineOptions) error {
		if err := validator.ValidateStopWords(words); err != nil {
			return fmt.Errorf("stop words: %w", err)
		}
		o.stopWords = append(o.stopWords, words...)
		return nil
	}
}

// WithStopWordsText sets the stop words from space-separated text. The text
// is validated like a query.
func WithStopWordsText(text string) Option {
	return func(o *engineOptions) error {
		if err := validator.ValidateText(text); err != nil {
			return fmt.Errorf("stop words: %w", err)
		}
		o.stopWords = append(o.stopWords, tokenizer.SplitIntoWords(text)...)
		return nil
	}
}

// WithMaxResults overrides ranker.MaxResultDocumentCount.
func WithMaxResults(n int) Option {
	return func(o *engineOptions) error {
		if n > 0 {
			o.maxResults = n
		}
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *engineOptions) error {
		o.metrics = m
		return nil
	}
}

// New creates an empty Engine. The stop-word set is fixed here and cannot
// change afterwards.
func New(opts ...Option) (*Engine, error) {
	o := engineOptions{
		maxResults: ranker.MaxResultDocumentCount,
		logger:     slog.Default().With("component", "search-engine"),
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	return &Engine{
		stopWords:  tokenizer.NewStopWords(o.stopWords),
		memIndex:   index.NewMemoryIndex(),
		docs:       store.New(),
		maxResults: o.maxResults,
		logger:     o.logger,
		metrics:    o.metrics,
	}, nil
}

// AddDocument validates and indexes a document. On error nothing is changed.
func (e *Engine) AddDocument(id index.DocumentID, text string, status store.Status, ratings []int) error {
	if err := e.docs.CheckID(id); err != nil {
		e.rejected("id", id, err)
		return fmt.Errorf("adding document: %w", err)
	}
	if err := validator.ValidateText(text); err != nil {
		e.rejected("text", id, err)
		return fmt.Errorf("adding document %d: %w", id, err)
	}

	terms := e.stopWords.SplitIntoTerms(text)
	if err := e.docs.Add(id, status, ratings); err != nil {
		return fmt.Errorf("adding document: %w", err)
	}
	e.memIndex.AddDocument(id, terms)

	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.IndexedDocuments.Set(float64(e.docs.Count()))
		e.metrics.IndexedTerms.Set(float64(e.memIndex.TermCount()))
	}
	e.logger.Debug("document indexed",
		"doc_id", id,
		"status", status,
		"term_count", len(terms),
		"index_size", e.memIndex.Size(),
	)
	return nil
}

// FindTopDocuments returns the best ACTUAL documents for rawQuery.
func (e *Engine) FindTopDocuments(rawQuery string) ([]ranker.Document, error) {
	return e.FindTopDocumentsByStatus(rawQuery, store.StatusActual)
}

// FindTopDocumentsByStatus returns the best documents with the given status.
func (e *Engine) FindTopDocumentsByStatus(rawQuery string, status store.Status) ([]ranker.Document, error) {
	return e.FindTopDocumentsFunc(rawQuery, ranker.StatusIs(status))
}

// FindTopDocumentsFunc returns at most the configured number of documents
// accepted by pred, best first. An invalid query is an error; a valid query
// that matches nothing returns an empty slice.
func (e *Engine) FindTopDocumentsFunc(rawQuery string, pred ranker.Predicate) ([]ranker.Document, error) {
	start := time.Now()
	if err := validator.ValidateText(rawQuery); err != nil {
		e.observeSearch("error", start, 0)
		return nil, fmt.Errorf("searching: %w", err)
	}
	query := parser.Parse(rawQuery, e.stopWords)

	plus := make([]index.TermEntry, 0, len(query.PlusTerms))
	for _, term := range query.PlusTerms {
		if postings := e.memIndex.Postings(term); len(postings) > 0 {
			plus = append(plus, index.TermEntry{Term: term, Postings: postings})
		}
	}
	results := ranker.Rank(
		plus,
		e.memIndex.DocumentsWithAny(query.MinusTerms),
		ranker.RankParams{TotalDocs: e.docs.Count(), Limit: e.maxResults},
		e.getDocInfo,
		pred,
	)

	resultType := "hit"
	if len(results) == 0 {
		resultType = "zero_result"
	}
	e.observeSearch(resultType, start, len(results))
	e.logger.Debug("query executed",
		"query", rawQuery,
		"plus_terms", query.PlusTerms,
		"minus_terms", query.MinusTerms,
		"results", len(results),
	)
	return results, nil
}

// MatchDocument returns the plus terms of rawQuery that occur in document id,
// in lexicographic order, together with the document's status. If any minus
// term occurs in the document the term list is empty.
func (e *Engine) MatchDocument(rawQuery string, id index.DocumentID) ([]string, store.Status, error) {
	rec, err := e.docs.Lookup(id)
	if err != nil {
		return nil, 0, fmt.Errorf("matching document: %w", err)
	}
	if err := validator.ValidateText(rawQuery); err != nil {
		return nil, 0, fmt.Errorf("matching document %d: %w", id, err)
	}
	query := parser.Parse(rawQuery, e.stopWords)

	for _, term := range query.MinusTerms {
		if e.memIndex.Contains(term, id) {
			return []string{}, rec.Status, nil
		}
	}
	matched := make([]string, 0, len(query.PlusTerms))
	for _, term := range query.PlusTerms {
		if e.memIndex.Contains(term, id) {
			matched = append(matched, term)
		}
	}
	return matched, rec.Status, nil
}

func (e *Engine) GetDocumentCount() int {
	return e.docs.Count()
}

// GetDocumentID returns the id of the document added at position ordinal.
func (e *Engine) GetDocumentID(ordinal int) (index.DocumentID, error) {
	id, err := e.docs.IDAt(ordinal)
	if err != nil {
		return 0, fmt.Errorf("getting document id: %w", err)
	}
	return id, nil
}

// Documents yields document ids in insertion order. The engine must not be
// modified during iteration.
func (e *Engine) Documents() iter.Seq[index.DocumentID] {
	return func(yield func(index.DocumentID) bool) {
		for i := 0; i < e.docs.Count(); i++ {
			id, err := e.docs.IDAt(i)
			if err != nil || !yield(id) {
				return
			}
		}
	}
}

// StopWords returns the stop words in lexicographic order.
func (e *Engine) StopWords() []string {
	return e.stopWords.Words()
}

// Terms returns a snapshot of the inverted index sorted by term.
func (e *Engine) Terms() []index.TermEntry {
	return e.memIndex.Snapshot()
}

// TermCount returns the number of distinct indexed terms.
func (e *Engine) TermCount() int {
	return e.memIndex.TermCount()
}

func (e *Engine) MaxResults() int {
	return e.maxResults
}

func (e *Engine) getDocInfo(id index.DocumentID) store.Record {
	rec, _ := e.docs.Get(id)
	return rec
}

func (e *Engine) rejected(reason string, id index.DocumentID, err error) {
	if e.metrics != nil {
		e.metrics.DocsRejectedTotal.WithLabelValues(reason).Inc()
	}
	e.logger.Debug("document rejected", "doc_id", id, "reason", reason, "error", err)
}

func (e *Engine) observeSearch(resultType string, start time.Time, n int) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.SearchLatency.Observe(time.Since(start).Seconds())
	if resultType != "error" {
		e.metrics.SearchResultsCount.Observe(float64(n))
	}
}
