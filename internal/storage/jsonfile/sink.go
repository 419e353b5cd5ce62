// Package jsonfile writes a region's records as a tab-indented JSON array to
// a blob store, one object per region key.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/resort"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
)

const contentType = "application/json"

// Sink implements storage.Sink on top of a storage.BlobStore.
type Sink struct {
	blobs  storage.BlobStore
	prefix string
	logger *zap.Logger
}

var _ storage.Sink = (*Sink)(nil)

// New creates a Sink that writes objects below prefix.
func New(blobs storage.BlobStore, prefix string, logger *zap.Logger) (*Sink, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{blobs: blobs, prefix: strings.Trim(prefix, "/"), logger: logger}, nil
}

// ObjectPath returns where the document for key is written.
func (s *Sink) ObjectPath(key string) string {
	return path.Join(s.prefix, strings.Trim(key, "/")+".json")
}

// ReplaceRegion overwrites the document for key with records.
func (s *Sink) ReplaceRegion(ctx context.Context, key string, records []resort.Record) error {
	if strings.Trim(key, "/ ") == "" {
		return &storage.PersistenceError{Op: "replace", Key: key, Err: errors.New("key is required")}
	}
	if records == nil {
		records = []resort.Record{}
	}
	body, err := json.MarshalIndent(records, "", "\t")
	if err != nil {
		return &storage.PersistenceError{Op: "encode", Key: key, Err: err}
	}

	uri, err := s.blobs.PutObject(ctx, s.ObjectPath(key), contentType, bytes.NewReader(body))
	if err != nil {
		return &storage.PersistenceError{Op: "replace", Key: key, Err: fmt.Errorf("put object: %w", err)}
	}
	s.logger.Info("wrote region document", zap.String("key", key), zap.String("uri", uri), zap.Int("records", len(records)))
	return nil
}
