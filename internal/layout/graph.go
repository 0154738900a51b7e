package layout

import (
	"github.com/matsen/sutra/internal/character"
	"github.com/matsen/sutra/internal/similarity"
)

// IdeaGraph builds the constellation graph. Only similarity edges above
// displayThreshold whose endpoints are both present become links.
func IdeaGraph(docs []similarity.Document, edges []similarity.Edge, displayThreshold float64) ([]Node, []Link) {
	nodes := make([]Node, 0, len(docs))
	present := make(map[int64]bool, len(docs))
	for _, d := range docs {
		if present[d.ID] {
			continue
		}
		present[d.ID] = true
		nodes = append(nodes, Node{ID: d.ID, Label: d.Label()})
	}

	links := make([]Link, 0, len(edges))
	for _, e := range edges {
		if e.Score <= displayThreshold || !present[e.IDA] || !present[e.IDB] {
			continue
		}
		links = append(links, Link{
			Source: e.IDA,
			Target: e.IDB,
			Weight: e.Score,
			Kind:   "similarity",
		})
	}
	return nodes, links
}

// CharacterGraph builds the character web. Relationships referring to a
// character that no longer exists are skipped.
func CharacterGraph(chars []character.Character, rels []character.Relationship) ([]Node, []Link) {
	nodes := make([]Node, 0, len(chars))
	present := make(map[int64]bool, len(chars))
	for _, c := range chars {
		if present[c.ID] {
			continue
		}
		present[c.ID] = true
		nodes = append(nodes, Node{ID: c.ID, Label: c.Name})
	}

	links := make([]Link, 0, len(rels))
	for _, r := range rels {
		if !present[r.CharacterA] || !present[r.CharacterB] {
			continue
		}
		links = append(links, Link{
			Source: r.CharacterA,
			Target: r.CharacterB,
			Weight: 1,
			Kind:   string(r.Type),
		})
	}
	return nodes, links
}
