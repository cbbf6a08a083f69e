package index

// DocumentID identifies a document. Valid ids are non-negative.
type DocumentID int

// Posting is one document's normalized frequency for a term: occurrences of
// the term divided by the document's indexed word count.
type Posting struct {
	DocID    DocumentID `json:"doc_id"`
	TermFreq float64    `json:"tf"`
}

type PostingList []Posting

type TermEntry struct {
	Term     string      `json:"term"`
	Postings PostingList `json:"postings"`
}
