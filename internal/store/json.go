package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure JSONStore implements model.ListingStore.
var _ model.ListingStore = (*JSONStore)(nil)

const lockRetryDelay = 100 * time.Millisecond

// JSONStore keeps listings as an indented JSON array in a single file. An
// advisory lock file next to it serializes concurrent runs, and writes go
// through a temp file plus rename.
type JSONStore struct {
	path   string
	limit  int
	lock   *flock.Flock
	logger *slog.Logger
}

// NewJSONStore returns a store backed by the file at path, capped at limit
// listings.
func NewJSONStore(path string, limit int, logger *slog.Logger) *JSONStore {
	if limit <= 0 {
		limit = DefaultRetention
	}
	return &JSONStore{
		path:   path,
		limit:  limit,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

// Load returns the stored listings, newest first. A missing or corrupt file
// reads as an empty list.
func (s *JSONStore) Load(ctx context.Context) ([]model.Listing, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	if _, err := s.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("acquiring read lock on %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	return s.read()
}

// Merge adds the incoming listings not yet stored and writes the file back
// when at least one was added. It returns the added listings.
func (s *JSONStore) Merge(ctx context.Context, incoming []model.Listing) ([]model.Listing, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	if _, err := s.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("acquiring lock on %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	existing, err := s.read()
	if err != nil {
		return nil, err
	}

	merged, added := Merge(existing, incoming, s.limit)
	if len(added) == 0 {
		s.logger.Info("no new listings to save", "stored", len(existing))
		return added, nil
	}

	if err := s.write(merged); err != nil {
		return nil, err
	}
	s.logger.Info("saved listings", "added", len(added), "stored", len(merged), "path", s.path)
	return added, nil
}

func (s *JSONStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	return nil
}

func (s *JSONStore) read() ([]model.Listing, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Listing{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Listing{}, nil
	}

	var listings []model.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		s.logger.Warn("store file is corrupt, starting empty", "path", s.path, "error", err)
		return []model.Listing{}, nil
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return listings, nil
}

func (s *JSONStore) write(listings []model.Listing) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		return fmt.Errorf("encoding listings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting store permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
