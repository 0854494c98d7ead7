package services

import (
	"strings"
	"unicode"
)

// TextAnalyzer provides text analysis capabilities for the domain
type TextAnalyzer interface {
	// Tokenize lower-cases text, splits on anything that is not a letter or
	// digit and keeps tokens longer than two characters that are not stop words.
	Tokenize(text string) []string

	// TermCounts builds a bag-of-words vector from Tokenize output
	TermCounts(text string) map[string]int

	// Terms returns the raw query terms (length > 2) without stop-word filtering
	Terms(text string) []string

	// IsStopWord reports whether a lower-cased word is ignored
	IsStopWord(word string) bool
}

// DefaultTextAnalyzer provides a default implementation of TextAnalyzer
type DefaultTextAnalyzer struct {
	stopWords map[string]bool
	minLength int
}

// NewDefaultTextAnalyzer creates a new text analyzer with common English stop words
func NewDefaultTextAnalyzer() *DefaultTextAnalyzer {
	return &DefaultTextAnalyzer{
		stopWords: getDefaultStopWords(),
		minLength: 3,
	}
}

// Tokenize breaks text into ordered, filtered tokens. Duplicates are kept.
func (ta *DefaultTextAnalyzer) Tokenize(text string) []string {
	tokens := make([]string, 0)
	for _, word := range splitWords(text) {
		if len(word) < ta.minLength || ta.stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// TermCounts counts token occurrences
func (ta *DefaultTextAnalyzer) TermCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range ta.Tokenize(text) {
		counts[token]++
	}
	return counts
}

// Terms splits a query on whitespace and keeps lower-cased terms longer than two characters
func (ta *DefaultTextAnalyzer) Terms(text string) []string {
	terms := make([]string, 0)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		if len(field) >= ta.minLength {
			terms = append(terms, field)
		}
	}
	return terms
}

// IsStopWord reports whether the word is filtered
func (ta *DefaultTextAnalyzer) IsStopWord(word string) bool {
	return ta.stopWords[strings.ToLower(word)]
}

// splitWords lower-cases text and treats punctuation as whitespace
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// getDefaultStopWords returns a set of common English stop words
func getDefaultStopWords() map[string]bool {
	stopWords := map[string]bool{
		"the": true, "be": true, "to": true, "of": true, "and": true,
		"a": true, "in": true, "that": true, "have": true, "i": true,
		"it": true, "for": true, "not": true, "on": true, "with": true,
		"as": true, "do": true, "at": true, "this": true, "but": true,
		"by": true, "from": true, "they": true, "we": true, "or": true,
		"an": true, "will": true, "one": true, "all": true, "would": true,
		"there": true, "their": true, "what": true, "so": true, "up": true,
		"out": true, "if": true, "about": true, "who": true, "which": true,
		"when": true, "can": true, "into": true, "some": true, "could": true,
		"them": true, "other": true, "than": true, "then": true, "its": true,
		"over": true, "also": true, "after": true, "use": true, "how": true,
		"our": true, "these": true, "most": true, "is": true, "was": true,
		"are": true, "been": true, "has": true, "had": true, "were": true,
		"did": true, "may": true, "should": true, "very": true, "under": true,
		"during": true, "between": true, "through": true, "using": true, "via": true,
		"within": true, "without": true, "toward": true, "towards": true, "upon": true,
	}
	return stopWords
}
