// Package similarity maintains a TF-IDF cosine-similarity index over a
// project's idea documents.
package similarity

import (
	"strings"
	"time"
)

// Document is the minimal view of an idea the index needs.
// ID 0 means the store has not assigned an identifier yet.
type Document struct {
	ID        int64
	Content   string
	Tags      []string
	CreatedAt time.Time
}

// Label returns the content, or the tags as "#a #b" for a tag-only document.
func (d Document) Label() string {
	if d.Content != "" || len(d.Tags) == 0 {
		return d.Content
	}
	return "#" + strings.Join(d.Tags, " #")
}

// Edge is an unordered pair of documents whose similarity exceeded the
// index threshold.
type Edge struct {
	IDA   int64   `json:"id_a"`
	IDB   int64   `json:"id_b"`
	Score float64 `json:"score"`
}

// Other returns the endpoint of e that is not id.
func (e Edge) Other(id int64) int64 {
	if e.IDA == id {
		return e.IDB
	}
	return e.IDA
}

// Snapshot is one immutable generation of the index. Vectors from different
// generations are not comparable because their term ordering may differ.
type Snapshot struct {
	// Version is the cache format version; see CurrentIndexVersion.
	Version int

	Generation  uint64
	Threshold   float64
	Fingerprint string
	BuiltAt     time.Time
	TotalDocs   int

	Vocabulary   map[string]int     // Term -> document frequency
	IDF          map[string]float64 // Term -> idf weight
	Terms        []string           // Vector ordering of this generation
	Vectors      map[int64][]float64
	Order        []int64 // Indexed document ids in input order
	Similarities []Edge
}

// BuildStats summarizes one rebuild.
type BuildStats struct {
	Documents  int           `json:"documents"`
	Indexed    int           `json:"indexed"`
	Skipped    int           `json:"skipped"`
	Terms      int           `json:"terms"`
	Edges      int           `json:"edges"`
	Generation uint64        `json:"generation"`
	Duration   time.Duration `json:"duration"`
}
