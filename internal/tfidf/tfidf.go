// Package tfidf computes document frequencies, smoothed inverse document
// frequencies and dense TF-IDF vectors over a tokenized corpus.
package tfidf

import (
	"math"
	"sort"
)

// Model is one generation of vocabulary statistics for a corpus.
// Terms fixes the vector ordering shared by every document of the generation.
type Model struct {
	N       int                // Corpus size
	DocFreq map[string]int     // Term -> number of documents containing it
	IDF     map[string]float64 // Term -> smoothed inverse document frequency
	Terms   []string           // Sorted vocabulary, index i is vector position i
}

// IDF returns ln((n+1)/(df+1)) + 1, which is positive for every df <= n.
func IDF(n, df int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1
}

// Build computes document frequency (presence only) and IDF for every term
// in docs. An empty corpus yields an empty model.
func Build(docs [][]string) *Model {
	m := &Model{
		N:       len(docs),
		DocFreq: make(map[string]int),
		IDF:     make(map[string]float64),
		Terms:   []string{},
	}
	if len(docs) == 0 {
		return m
	}

	for _, tokens := range docs {
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			m.DocFreq[tok]++
		}
	}

	m.Terms = make([]string, 0, len(m.DocFreq))
	for term, df := range m.DocFreq {
		m.IDF[term] = IDF(m.N, df)
		m.Terms = append(m.Terms, term)
	}
	sort.Strings(m.Terms)
	return m
}

// TermFrequency counts tokens and divides every count by the largest one,
// so the most frequent term has TF 1.0. Empty input yields an empty map.
func TermFrequency(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	maxFreq := 0.0
	for _, tok := range tokens {
		tf[tok]++
		if tf[tok] > maxFreq {
			maxFreq = tf[tok]
		}
	}
	if maxFreq == 0 {
		maxFreq = 1
	}
	for term, freq := range tf {
		tf[term] = freq / maxFreq
	}
	return tf
}

// Vector returns the dense TF-IDF vector of tokens over m.Terms.
// Tokens outside the vocabulary contribute nothing.
func (m *Model) Vector(tokens []string) []float64 {
	tf := TermFrequency(tokens)
	vec := make([]float64, len(m.Terms))
	for i, term := range m.Terms {
		vec[i] = tf[term] * m.IDF[term]
	}
	return vec
}

// Dimensions returns the vector length of this generation.
func (m *Model) Dimensions() int {
	return len(m.Terms)
}
