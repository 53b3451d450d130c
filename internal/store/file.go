// Package store persists snapshots.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theakshaypant/caldigest/internal/config"
	"github.com/theakshaypant/caldigest/internal/core"
)

// FileStore keeps the latest snapshot as a JSON document on disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path. An empty path uses the
// default output file in the working directory.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = config.DefaultOutputFile
	}
	return &FileStore{path: path}
}

// Path returns the file the store writes to.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes snap, replacing any previous file. Keys come out in date
// order and non-ASCII text is written as-is.
func (s *FileStore) Save(ctx context.Context, snap core.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if snap == nil {
		snap = core.Snapshot{}
	}

	data, err := Encode(snap)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("prepare output directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot file: %w", err)
	}
	return s.path, nil
}

// Encode renders snap in the on-disk format.
func Encode(snap core.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
