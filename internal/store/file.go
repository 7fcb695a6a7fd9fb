package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/iliyamo/lab-occupancy/internal/model"
)

// FileStore persists the snapshot as one JSON document on disk.  Writes go
// to a temporary file in the same directory followed by a rename, so a
// crashed save leaves the previous document intact and a concurrent Load
// never sees a torn file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore writing to path.  The parent directory
// is created on the first save if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and validates the snapshot file.  Absent or corrupt data is
// replaced with the default layout, which is persisted before returning.
func (s *FileStore) Load(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path)
	if err == nil {
		var snap model.Snapshot
		if jsonErr := json.Unmarshal(raw, &snap); jsonErr == nil {
			if valErr := snap.Validate(); valErr == nil {
				return &snap, nil
			}
		}
		// fall through: corrupt data is treated the same as absent
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	snap := model.DefaultSnapshot(now())
	if err := s.write(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save atomically replaces the snapshot file.
func (s *FileStore) Save(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(snap)
}

// Clear removes the snapshot file; the next Load reinitializes defaults.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) write(snap *model.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
