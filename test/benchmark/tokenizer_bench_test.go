// Package benchmark contains Go benchmarks for the tokenizer, memory index,
// ranker and search service, measuring throughput and allocation behaviour.
package benchmark

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion/validator"
)

var sampleTexts = map[string]string{
	"short":  "пушистый кот пушистый хвост и модный ошейник",
	"medium": strings.Repeat("ухоженный пёс выразительные глаза и большой скворец евгений ", 10),
	"long":   strings.Repeat("белый кот и модный ошейник на пушистый хвост в ухоженный двор ", 200),
}

var benchStopWords = tokenizer.NewStopWords([]string{"и", "в", "на"})

func BenchmarkSplitIntoWords(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = tokenizer.SplitIntoWords(text)
			}
		})
	}
}

func BenchmarkSplitIntoTerms(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = benchStopWords.SplitIntoTerms(text)
			}
		})
	}
}

func BenchmarkSplitIntoTermsParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = benchStopWords.SplitIntoTerms(text)
		}
	})
}

func BenchmarkValidateText(b *testing.B) {
	text := sampleTexts["long"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		if err := validator.ValidateText(text); err != nil {
			b.Fatal(err)
		}
	}
}
