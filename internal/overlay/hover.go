package overlay

import (
	"sort"

	"github.com/matsen/sutra/internal/viewport"
)

// TooltipLength is the number of characters shown in a hover tooltip.
const TooltipLength = 60

// Hover tracks the element under the pointer.
type Hover struct {
	ID      int64
	Pointer viewport.Point
}

// Set marks id as hovered at pointer.
func (h *Hover) Set(id int64, pointer viewport.Point) {
	h.ID = id
	h.Pointer = pointer
}

// Clear removes the hover.
func (h *Hover) Clear() {
	*h = Hover{}
}

// Active reports whether anything is hovered.
func (h *Hover) Active() bool {
	return h.ID != 0
}

// LinkHighlighted reports whether the edge a-b touches the hovered node.
func LinkHighlighted(hovered, a, b int64) bool {
	return hovered != 0 && (a == hovered || b == hovered)
}

// Selection is a set of selected ids.
type Selection struct {
	ids map[int64]struct{}
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id int64) bool {
	if s.ids == nil {
		s.ids = make(map[int64]struct{})
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id is selected.
func (s *Selection) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selection in ascending order.
func (s *Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
}

// Truncate shortens s to n characters, adding an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Tooltip returns hover text for content.
func Tooltip(content string) string {
	return Truncate(content, TooltipLength)
}
