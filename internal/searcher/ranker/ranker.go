// Package ranker scores candidate documents with TF-IDF, applies minus-term
// exclusions and returns the top results.
package ranker

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/store"
)

const (
	// MaxResultDocumentCount is the default bound on returned results.
	MaxResultDocumentCount = 5
	// RelevanceEpsilon is the distance below which two relevances are equal
	// and rating decides the order.
	RelevanceEpsilon = 1e-6
)

// Document is one ranked result.
type Document struct {
	ID        index.DocumentID `json:"id"`
	Relevance float64          `json:"relevance"`
	Rating    int              `json:"rating"`
}

// Predicate filters candidates by id, status and rating.
type Predicate func(id index.DocumentID, status store.Status, rating int) bool

// StatusIs returns a Predicate accepting documents with the given status.
func StatusIs(status store.Status) Predicate {
	return func(_ index.DocumentID, s store.Status, _ int) bool {
		return s == status
	}
}

type RankParams struct {
	TotalDocs int
	Limit     int
}

// Rank scores every document posted under the plus terms. plusTerms must be
// in query order so float accumulation is reproducible. Documents in excluded
// are dropped whatever their score. getDocInfo must know every posted id.
func Rank(
	plusTerms []index.TermEntry,
	excluded *roaring64.Bitmap,
	params RankParams,
	getDocInfo func(id index.DocumentID) store.Record,
	pred Predicate,
) []Document {
	scores := make(map[index.DocumentID]float64)
	for _, entry := range plusTerms {
		if len(entry.Postings) == 0 {
			continue
		}
		idf := computeIDF(params.TotalDocs, len(entry.Postings))
		for _, posting := range entry.Postings {
			info := getDocInfo(posting.DocID)
			if pred != nil && !pred(posting.DocID, info.Status, info.Rating) {
				continue
			}
			scores[posting.DocID] += posting.TermFreq * idf
		}
	}
	if excluded != nil {
		for docID := range scores {
			if excluded.Contains(uint64(docID)) {
				delete(scores, docID)
			}
		}
	}

	result := make([]Document, 0, len(scores))
	for docID, score := range scores {
		result = append(result, Document{
			ID:        docID,
			Relevance: score,
			Rating:    getDocInfo(docID).Rating,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	SortByRelevance(result)
	return Truncate(result, params.Limit)
}

// SortByRelevance orders docs by descending relevance; relevances closer than
// RelevanceEpsilon fall back to descending rating. The sort is stable.
func SortByRelevance(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if math.Abs(docs[i].Relevance-docs[j].Relevance) < RelevanceEpsilon {
			return docs[i].Rating > docs[j].Rating
		}
		return docs[i].Relevance > docs[j].Relevance
	})
}

// Truncate keeps at most limit docs. A non-positive limit means
// MaxResultDocumentCount.
func Truncate(docs []Document, limit int) []Document {
	if limit <= 0 {
		limit = MaxResultDocumentCount
	}
	if len(docs) > limit {
		return docs[:limit]
	}
	return docs
}

// computeIDF is ln(totalDocs / docFreq). docFreq is at least 1 for an
// indexed term.
func computeIDF(totalDocs int, docFreq int) float64 {
	if docFreq <= 0 || totalDocs <= 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(docFreq))
}
