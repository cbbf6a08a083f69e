// Package parser turns a raw query into plus and minus term sets.
//
// A word prefixed with '-' is a minus term: documents containing it are
// excluded from results. Every other non-empty word is a plus term. Stop words
// are dropped from both sets. Callers validate the raw query before parsing.
package parser

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
)

const minusMarker = "-"

// Query holds deduplicated term sets, each in lexicographic order.
type Query struct {
	PlusTerms  []string
	MinusTerms []string
	RawQuery   string
}

// Empty reports whether the query has no plus terms and can match nothing.
func (q *Query) Empty() bool {
	return len(q.PlusTerms) == 0
}

func Parse(raw string, stopWords tokenizer.StopWords) *Query {
	plus := make(map[string]struct{})
	minus := make(map[string]struct{})
	for _, word := range tokenizer.SplitIntoWords(raw) {
		isMinus := strings.HasPrefix(word, minusMarker)
		if isMinus {
			word = word[len(minusMarker):]
		}
		if word == "" || stopWords.Contains(word) {
			continue
		}
		if isMinus {
			minus[word] = struct{}{}
		} else {
			plus[word] = struct{}{}
		}
	}
	return &Query{
		PlusTerms:  sortedKeys(plus),
		MinusTerms: sortedKeys(minus),
		RawQuery:   raw,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
