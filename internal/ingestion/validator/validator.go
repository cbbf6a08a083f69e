// Package validator checks document text, queries and stop words before they
// reach the index. A rejected input never causes any mutation.
package validator

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// Reason identifies which rule an input broke.
type Reason string

const (
	ReasonControlChar Reason = "contains a control character"
	ReasonLoneMinus   Reason = "contains a lone '-' marker"
	ReasonDoubleMinus Reason = "contains a word starting with '--'"
)

// ValidationError describes a rejected input. It unwraps to
// errors.ErrInvalidInput.
type ValidationError struct {
	Input  string
	Word   string
	Reason Reason
}

func (e *ValidationError) Error() string {
	if e.Word == "" || e.Word == e.Input {
		return fmt.Sprintf("%s: %q", e.Reason, e.Input)
	}
	return fmt.Sprintf("%s: word %q in %q", e.Reason, e.Word, e.Input)
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// IsValidWord reports whether word is free of control characters
// (bytes 0x00 through 0x1F).
func IsValidWord(word string) bool {
	return !strings.ContainsFunc(word, func(r rune) bool {
		return r < ' '
	})
}

// ValidateText checks document text or a raw query: no control characters,
// no word that is exactly "-", and no word that starts with "--".
func ValidateText(text string) error {
	for _, word := range tokenizer.SplitIntoWords(text) {
		switch {
		case word == "-":
			return &ValidationError{Input: text, Word: word, Reason: ReasonLoneMinus}
		case strings.HasPrefix(word, "--"):
			return &ValidationError{Input: text, Word: word, Reason: ReasonDoubleMinus}
		case !IsValidWord(word):
			return &ValidationError{Input: text, Word: word, Reason: ReasonControlChar}
		}
	}
	return nil
}

// ValidateStopWords checks every word of a stop-word collection for control
// characters.
func ValidateStopWords(words []string) error {
	for _, w := range words {
		if !IsValidWord(w) {
			return &ValidationError{Input: w, Word: w, Reason: ReasonControlChar}
		}
	}
	return nil
}
