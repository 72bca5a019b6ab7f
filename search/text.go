package search

import (
	"strings"
	"unicode"
)

// Stop words ignored when checking for verbatim matches.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {}, "was": {},
	"to": {}, "of": {}, "and": {}, "in": {}, "that": {}, "have": {}, "it": {},
	"for": {}, "not": {}, "on": {}, "with": {}, "as": {}, "you": {}, "do": {},
	"at": {}, "this": {}, "but": {}, "by": {}, "from": {}, "what": {}, "how": {},
}

// significantWords lowercases text, splits it on anything that is not a letter
// or digit and drops stop words. PDF text often glues words to punctuation, so
// hyphens and slashes separate words too.
func significantWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := fields[:0]
	for _, w := range fields {
		if _, stop := stopWords[w]; !stop {
			words = append(words, w)
		}
	}
	return words
}

// containsAllQueryWords reports whether every significant query word occurs in document.
func containsAllQueryWords(document, query string) bool {
	queryWords := significantWords(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := make(map[string]struct{})
	for _, w := range significantWords(document) {
		docWords[w] = struct{}{}
	}

	for _, w := range queryWords {
		if _, ok := docWords[w]; !ok {
			return false
		}
	}
	return true
}
