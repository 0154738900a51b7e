// Package text normalizes free text into the terms used for similarity indexing.
package text

import (
	"sort"
	"strings"
)

// stopWords are common English function words dropped during tokenization.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "it": true, "as": true,
	"be": true, "was": true, "were": true, "been": true, "are": true, "am": true,
	"will": true, "would": true, "could": true, "should": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true, "not": true,
	"no": true, "so": true, "if": true, "then": true, "than": true, "that": true,
	"this": true, "these": true, "those": true, "what": true, "which": true,
	"who": true, "whom": true, "how": true, "when": true, "where": true,
	"why": true, "all": true, "each": true, "every": true, "both": true,
	"few": true, "more": true, "most": true, "other": true, "some": true,
	"such": true, "only": true, "own": true, "same": true, "too": true,
	"very": true, "just": true, "because": true, "about": true, "into": true,
	"through": true, "during": true, "before": true, "after": true,
	"above": true, "below": true, "between": true, "out": true, "off": true,
	"over": true, "under": true, "again": true, "further": true, "once": true,
	"here": true, "there": true, "can": true, "up": true, "down": true,
	"also": true, "my": true, "your": true, "his": true, "her": true,
	"its": true, "our": true, "their": true, "me": true, "him": true,
	"them": true, "we": true, "they": true, "i": true, "you": true, "he": true,
	"she": true, "us": true,
}

// MinTokenLength is the shortest token kept by Tokenize.
const MinTokenLength = 2

// Tokenize lowercases text, replaces every rune outside [a-z0-9'-] with a
// space, splits on whitespace and drops short tokens and stop words.
// The result is never nil.
func Tokenize(s string) []string {
	lowered := strings.ToLower(s)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '-':
			return r
		default:
			return ' '
		}
	}, lowered)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < MinTokenLength || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// IsStopWord reports whether w is in the stop-word set.
func IsStopWord(w string) bool {
	return stopWords[w]
}

// StopWords returns a sorted copy of the stop-word set.
func StopWords() []string {
	words := make([]string, 0, len(stopWords))
	for w := range stopWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
