package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matsen/sutra/internal/viewport"
)

// parseID parses a positive entity id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// mustParseID parses an id argument, exits on error.
func mustParseID(s string) int64 {
	id, err := parseID(s)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return id
}

// parseTags splits a comma-separated tag list, dropping blanks and a
// leading '#'.
func parseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parsePoint parses "x,y" in content pixels.
func parsePoint(s string) (viewport.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return viewport.Point{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return viewport.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return viewport.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	if !isFinite(x) || !isFinite(y) {
		return viewport.Point{}, fmt.Errorf("invalid point %q: coordinates must be finite", s)
	}
	return viewport.Point{X: x, Y: y}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseUnit parses a value in [0,1]; NaN is rejected.
func parseUnit(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if !(v >= 0 && v <= 1) {
		return 0, fmt.Errorf("%v is outside [0,1]", v)
	}
	return v, nil
}

// parsePath parses a pointer path such as "120,300 124,301 180,260".
func parsePath(s string) ([]viewport.Point, error) {
	fields := strings.Fields(s)
	points := make([]viewport.Point, 0, len(fields))
	for _, f := range fields {
		p, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
