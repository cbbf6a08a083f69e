// Package store keeps per-document metadata (average rating and status) and
// the order in which documents were added.
package store

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// Status is the lifecycle state of a document. It never changes after the
// document is added.
type Status int

const (
	StatusActual Status = iota
	StatusIrrelevant
	StatusBanned
	StatusRemoved
)

var statusNames = [...]string{"ACTUAL", "IRRELEVANT", "BANNED", "REMOVED"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus accepts the status names case-insensitively. ACTIVE is an alias
// for ACTUAL.
func ParseStatus(s string) (Status, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "ACTIVE" {
		return StatusActual, nil
	}
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown document status %q", apperrors.ErrInvalidInput, s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Record is the stored metadata of one document.
type Record struct {
	Rating int
	Status Status
}

// Store owns document records keyed by id plus the insertion order. It is
// not safe for concurrent use.
type Store struct {
	records map[index.DocumentID]Record
	order   []index.DocumentID
}

func New() *Store {
	return &Store{
		records: make(map[index.DocumentID]Record),
	}
}

// CheckID reports whether id may be added: it must be non-negative and not
// present yet.
func (s *Store) CheckID(id index.DocumentID) error {
	if id < 0 {
		return fmt.Errorf("%w: %d is negative", apperrors.ErrInvalidDocumentID, id)
	}
	if _, exists := s.records[id]; exists {
		return fmt.Errorf("%w: id %d", apperrors.ErrDocumentExists, id)
	}
	return nil
}

// Add stores the record and appends id to the insertion order.
func (s *Store) Add(id index.DocumentID, status Status, ratings []int) error {
	if err := s.CheckID(id); err != nil {
		return err
	}
	s.records[id] = Record{Rating: AverageRating(ratings), Status: status}
	s.order = append(s.order, id)
	return nil
}

func (s *Store) Get(id index.DocumentID) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Lookup is Get that reports a missing id as errors.ErrDocumentNotFound.
func (s *Store) Lookup(id index.DocumentID) (Record, error) {
	r, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: id %d", apperrors.ErrDocumentNotFound, id)
	}
	return r, nil
}

func (s *Store) Count() int {
	return len(s.records)
}

// IDAt returns the id added at the given 0-based position.
func (s *Store) IDAt(ordinal int) (index.DocumentID, error) {
	if ordinal < 0 || ordinal >= len(s.order) {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", apperrors.ErrOutOfRange, ordinal, len(s.order))
	}
	return s.order[ordinal], nil
}

// IDs returns a copy of the ids in insertion order.
func (s *Store) IDs() []index.DocumentID {
	out := make([]index.DocumentID, len(s.order))
	copy(out, s.order)
	return out
}

// AverageRating is the floor of the arithmetic mean of ratings, or 0 for an
// empty list.
func AverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	n := int64(len(ratings))
	avg := sum / n
	if sum%n != 0 && sum < 0 {
		avg--
	}
	return int(avg)
}
