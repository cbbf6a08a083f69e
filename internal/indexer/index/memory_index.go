// Package index implements the in-memory inverted index: for every term, the
// set of documents containing it and each document's normalized term
// frequency.
package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// MemoryIndex maps terms to postings. It is not safe for concurrent use;
// callers serialize writers themselves.
type MemoryIndex struct {
	freqs map[string]map[DocumentID]float64
	docs  map[string]*roaring64.Bitmap
	size  int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		freqs: make(map[string]map[DocumentID]float64),
		docs:  make(map[string]*roaring64.Bitmap),
	}
}

// AddDocument indexes the document's terms. Each occurrence contributes
// 1/len(terms) to the term's frequency, so a document's frequencies sum to 1.
// A document without terms adds no postings.
func (m *MemoryIndex) AddDocument(docID DocumentID, terms []string) {
	if len(terms) == 0 {
		return
	}
	inc := 1.0 / float64(len(terms))
	for _, term := range terms {
		byDoc, exists := m.freqs[term]
		if !exists {
			byDoc = make(map[DocumentID]float64)
			m.freqs[term] = byDoc
			m.docs[term] = roaring64.New()
			m.size += int64(len(term) + 64)
		}
		if _, seen := byDoc[docID]; !seen {
			m.docs[term].Add(uint64(docID))
			m.size += 16
		}
		byDoc[docID] += inc
	}
}

// Postings returns the term's postings ordered by document id, or nil if the
// term is not indexed.
func (m *MemoryIndex) Postings(term string) PostingList {
	byDoc, exists := m.freqs[term]
	if !exists {
		return nil
	}
	result := make(PostingList, 0, len(byDoc))
	for docID, tf := range byDoc {
		result = append(result, Posting{DocID: docID, TermFreq: tf})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocID < result[j].DocID
	})
	return result
}

// DocFreq returns the number of documents containing term.
func (m *MemoryIndex) DocFreq(term string) int {
	bm, exists := m.docs[term]
	if !exists {
		return 0
	}
	return int(bm.GetCardinality())
}

// Contains reports whether docID has a posting for term.
func (m *MemoryIndex) Contains(term string, docID DocumentID) bool {
	bm, exists := m.docs[term]
	if !exists {
		return false
	}
	return bm.Contains(uint64(docID))
}

// TermFreq returns the normalized frequency of term in docID.
func (m *MemoryIndex) TermFreq(term string, docID DocumentID) (float64, bool) {
	tf, ok := m.freqs[term][docID]
	return tf, ok
}

// DocumentsWithAny returns the union of the document sets of terms. Unknown
// terms contribute nothing. The returned bitmap is owned by the caller.
func (m *MemoryIndex) DocumentsWithAny(terms []string) *roaring64.Bitmap {
	result := roaring64.New()
	for _, term := range terms {
		if bm, exists := m.docs[term]; exists {
			result.Or(bm)
		}
	}
	return result
}

// Snapshot returns every term with its postings, sorted by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.freqs))
	for term := range m.freqs {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: m.Postings(term),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

func (m *MemoryIndex) TermCount() int {
	return len(m.freqs)
}

// Size is a rough estimate of the index footprint in bytes.
func (m *MemoryIndex) Size() int64 {
	return m.size
}
