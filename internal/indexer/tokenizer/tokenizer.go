// Package tokenizer splits raw text into terms and holds the stop-word set
// consulted during indexing and query parsing.
//
// Splitting is byte-exact: tokens are separated by the single ASCII space and
// nothing else. Consecutive, leading or trailing spaces produce empty tokens,
// which SplitIntoWords keeps and SplitIntoTerms drops.
package tokenizer

import (
	"sort"
	"strings"
)

const separator = " "

// SplitIntoWords splits text on every single space. The result always has
// strings.Count(text, " ")+1 elements, including empty ones.
func SplitIntoWords(text string) []string {
	return strings.Split(text, separator)
}

// StopWords is an immutable set of terms excluded from indexing and queries.
// The zero value is an empty set.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a set from words. Empty strings are ignored.
func NewStopWords(words []string) StopWords {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return StopWords{words: set}
}

// Contains reports whether word is a stop word.
func (s StopWords) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

func (s StopWords) Len() int {
	return len(s.words)
}

// Words returns the stop words in lexicographic order.
func (s StopWords) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// SplitIntoTerms tokenizes text and returns the indexable terms in order,
// dropping empty tokens and stop words. Duplicates are kept.
func (s StopWords) SplitIntoTerms(text string) []string {
	words := SplitIntoWords(text)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" || s.Contains(w) {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}
