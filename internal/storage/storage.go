// Package storage defines how validated resort records are persisted per
// region and read back for ranking. Implementations live in subpackages:
// postgres (tables), jsonfile (JSON documents on a BlobStore) and memory.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/skiresort-ranker/internal/resort"
)

// DefaultLimit caps a query when the caller passes a non-positive limit.
const DefaultLimit = 20

// Sink replaces the full record set stored under a key.
type Sink interface {
	ReplaceRegion(ctx context.Context, key string, records []resort.Record) error
}

// Store reads records stored under a key.
type Store interface {
	Query(ctx context.Context, key string, sort Sort) ([]resort.Record, error)
}

// BlobStore persists opaque objects and returns a URI for them.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// PersistenceError wraps any I/O failure of a storage backend.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Column is a sortable record column.
type Column string

// Sortable columns.
const (
	ColumnDiff    Column = "diff"
	ColumnHighest Column = "highest"
	ColumnLowest  Column = "lowest"
	ColumnName    Column = "name"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort describes the ordering and size of a query. Build it with NewSort so
// only whitelisted values reach a backend.
type Sort struct {
	Column    Column
	Direction Direction
	Limit     int
}

// DefaultSort orders by drop, largest first.
func DefaultSort() Sort {
	return Sort{Column: ColumnDiff, Direction: Desc, Limit: DefaultLimit}
}

// NewSort normalizes caller input. Unknown columns become diff, unknown
// directions become DESC and a non-positive limit becomes DefaultLimit.
func NewSort(column, direction string, limit int) Sort {
	s := DefaultSort()
	if c, ok := ParseColumn(column); ok {
		s.Column = c
	}
	if d, ok := ParseDirection(direction); ok {
		s.Direction = d
	}
	if limit > 0 {
		s.Limit = limit
	}
	return s
}

// ParseColumn reports whether raw names a sortable column.
func ParseColumn(raw string) (Column, bool) {
	switch c := Column(strings.ToLower(strings.TrimSpace(raw))); c {
	case ColumnDiff, ColumnHighest, ColumnLowest, ColumnName:
		return c, true
	}
	return "", false
}

// ParseDirection reports whether raw names a sort direction.
func ParseDirection(raw string) (Direction, bool) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(raw))); d {
	case Asc, Desc:
		return d, true
	}
	return "", false
}

// Less reports whether a sorts before b under s, breaking ties by name.
func (s Sort) Less(a, b resort.Record) bool {
	var cmp int
	switch s.Column {
	case ColumnName:
		cmp = strings.Compare(a.Name, b.Name)
	case ColumnHighest:
		cmp = compare(a.Highest, b.Highest)
	case ColumnLowest:
		cmp = compare(a.Lowest, b.Lowest)
	default:
		cmp = compare(a.Drop, b.Drop)
	}
	if cmp == 0 {
		return a.Name < b.Name
	}
	if s.Direction == Asc {
		return cmp < 0
	}
	return cmp > 0
}

func compare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
