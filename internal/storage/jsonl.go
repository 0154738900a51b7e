// Package storage handles data persistence in JSONL and SQLite formats.
//
// JSONL files under .sutra/ are the source of truth. The SQLite database is
// an ephemeral query layer rebuilt from them.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
// This constant is shared across all JSONL file readers.
const MaxJSONLLineCapacity = 1024 * 1024

// readJSONL reads every record of a JSONL file. A missing file yields an
// empty slice. When check is non-nil each record is validated as it is read
// and the first failure aborts the read (fail-fast).
func readJSONL[T any](path, kind string, check func(*T) error) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening %s file: %w", kind, err)
	}
	defer f.Close()

	var items []T
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if check != nil {
			if err := check(&item); err != nil {
				return nil, fmt.Errorf("invalid %s at line %d: %w", kind, lineNum, err)
			}
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s file: %w", kind, err)
	}

	return items, nil
}

// writeJSONLine marshals v to JSON and writes it as a JSONL line.
func writeJSONLine(w io.Writer, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", kind, err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}
	return nil
}

// appendJSONL adds one record to the end of a JSONL file.
func appendJSONL(path, kind string, v any) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s file for append: %w", kind, err)
	}
	defer f.Close()

	return writeJSONLine(f, kind, v)
}

// writeAllJSONL replaces the content of a JSONL file. The new content is
// written to a sibling temp file and renamed into place so readers never
// observe a half-written file.
func writeAllJSONL[T any](path, kind string, items []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating %s file: %w", kind, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i := range items {
		if err := writeJSONLine(w, kind, items[i]); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s file: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s file: %w", kind, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s file: %w", kind, err)
	}
	return nil
}

// indexByID returns the position of the record whose id matches, or -1.
func indexByID[T any](items []T, id int64, idOf func(*T) int64) int {
	for i := range items {
		if idOf(&items[i]) == id {
			return i
		}
	}
	return -1
}

// nextID returns one past the largest id in items, starting at 1.
func nextID[T any](items []T, idOf func(*T) int64) int64 {
	var max int64
	for i := range items {
		if id := idOf(&items[i]); id > max {
			max = id
		}
	}
	return max + 1
}

// deleteByID removes the record with id, preserving order.
func deleteByID[T any](items []T, id int64, idOf func(*T) int64) ([]T, bool) {
	idx := indexByID(items, id, idOf)
	if idx < 0 {
		return items, false
	}
	return append(items[:idx], items[idx+1:]...), true
}
