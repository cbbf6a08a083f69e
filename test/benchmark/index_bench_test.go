package benchmark

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
)

var benchTerms = benchStopWords.SplitIntoTerms("распределённый поиск с индексацией и ранжированием запросов по документам")

// BenchmarkMemoryIndexAdd measures per-document insert throughput into the
// in-memory inverted index.
func BenchmarkMemoryIndexAdd(b *testing.B) {
	mi := index.NewMemoryIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mi.AddDocument(index.DocumentID(i), benchTerms)
	}
}

// BenchmarkMemoryIndexPostings measures single-term lookup latency over
// 10 000 documents.
func BenchmarkMemoryIndexPostings(b *testing.B) {
	mi := index.NewMemoryIndex()
	for i := 0; i < 10000; i++ {
		mi.AddDocument(index.DocumentID(i), benchTerms)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mi.Postings("поиск")
	}
}

func BenchmarkMemoryIndexContainsParallel(b *testing.B) {
	mi := index.NewMemoryIndex()
	for i := 0; i < 10000; i++ {
		mi.AddDocument(index.DocumentID(i), benchTerms)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = mi.Contains("поиск", index.DocumentID(i%10000))
			i++
		}
	})
}

// BenchmarkEngineAddDocument measures validation, tokenizing and indexing
// together.
func BenchmarkEngineAddDocument(b *testing.B) {
	engine, err := indexer.New(indexer.WithStopWordsText("и в на"))
	if err != nil {
		b.Fatal(err)
	}
	text := sampleTexts["medium"]

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := engine.AddDocument(index.DocumentID(i), text, store.StatusActual, []int{i % 10, 5}); err != nil {
			b.Fatal(err)
		}
	}
}

func newBenchEngine(b *testing.B, docs int) *indexer.Engine {
	b.Helper()
	engine, err := indexer.New(indexer.WithStopWordsText("и в на"))
	if err != nil {
		b.Fatal(err)
	}
	words := []string{"кот", "пёс", "пушистый", "хвост", "ошейник", "модный", "скворец", "глаза"}
	for i := 0; i < docs; i++ {
		text := fmt.Sprintf("%s %s и %s", words[i%len(words)], words[(i/3)%len(words)], words[(i/7)%len(words)])
		status := store.Status(i % 4)
		if err := engine.AddDocument(index.DocumentID(i), text, status, []int{i % 10}); err != nil {
			b.Fatal(err)
		}
	}
	return engine
}
