package overlay

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/matsen/sutra/internal/viewport"
)

// Event label stagger settings.
const (
	EventLabelCharPx = 7.2 // approximate width of one label character
	EventLabelPad    = 14  // horizontal gap required between labels
	MaxLabelRows     = 5
)

// SliderWheel nudges a slider value by one step per wheel tick: scrolling up
// increases it. The result is clamped and rounded to three decimals.
func SliderWheel(value, deltaY, step, lo, hi float64) float64 {
	switch {
	case deltaY < 0:
		value += step
	case deltaY > 0:
		value -= step
	}
	return viewport.Round3(viewport.Clamp(value, lo, hi))
}

// LabelItem is a label anchored at X.
type LabelItem struct {
	ID    int64
	X     float64
	Title string
}

// LabelRows assigns each label a row so neighbouring labels do not overlap.
// Labels are placed left to right; a label drops one row for every placed
// label it collides with on its current row, and wraps back to row 0 after
// MaxLabelRows.
func LabelRows(items []LabelItem, charPx, pad float64) map[int64]int {
	type placed struct {
		x, halfW float64
		row      int
	}

	sorted := make([]LabelItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	rows := make(map[int64]int, len(items))
	occupied := make([]placed, 0, len(items))
	for _, item := range sorted {
		halfW := float64(utf8.RuneCountInString(item.Title)) * charPx / 2
		row := 0
		for _, prev := range occupied {
			if prev.row == row && math.Abs(item.X-prev.x) < halfW+prev.halfW+pad {
				row++
				if row >= MaxLabelRows {
					row = 0
					break
				}
			}
		}
		rows[item.ID] = row
		occupied = append(occupied, placed{x: item.X, halfW: halfW, row: row})
	}
	return rows
}
