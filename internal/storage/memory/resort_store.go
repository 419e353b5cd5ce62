package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/JakeFAU/skiresort-ranker/internal/region"
	"github.com/JakeFAU/skiresort-ranker/internal/resort"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
)

// ErrNoTable is returned when a key has never been written.
var ErrNoTable = errors.New("no table for key")

// ResortStore implements storage.Sink and storage.Store over a map keyed by
// table name.
type ResortStore struct {
	mu     sync.RWMutex
	tables map[string][]resort.Record
}

var (
	_ storage.Sink  = (*ResortStore)(nil)
	_ storage.Store = (*ResortStore)(nil)
)

// NewResortStore constructs an empty ResortStore.
func NewResortStore() *ResortStore {
	return &ResortStore{tables: make(map[string][]resort.Record)}
}

// ReplaceRegion swaps the table for key with a copy of records.
func (s *ResortStore) ReplaceRegion(_ context.Context, key string, records []resort.Record) error {
	table := region.TableName(key)
	if table == "" {
		return &storage.PersistenceError{Op: "replace", Key: key, Err: errors.New("table key is required")}
	}
	cp := append([]resort.Record(nil), records...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = cp
	return nil
}

// Query returns up to sort.Limit records of key ordered by sort.
func (s *ResortStore) Query(_ context.Context, key string, srt storage.Sort) ([]resort.Record, error) {
	srt = storage.NewSort(string(srt.Column), string(srt.Direction), srt.Limit)

	s.mu.RLock()
	records, ok := s.tables[region.TableName(key)]
	s.mu.RUnlock()
	if !ok {
		return nil, &storage.PersistenceError{Op: "query", Key: key, Err: ErrNoTable}
	}

	out := append([]resort.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool { return srt.Less(out[i], out[j]) })
	if len(out) > srt.Limit {
		out = out[:srt.Limit]
	}
	return out, nil
}

// Ping always succeeds.
func (s *ResortStore) Ping(context.Context) error { return nil }
