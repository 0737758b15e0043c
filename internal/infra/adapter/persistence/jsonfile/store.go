// Package jsonfile stores catalog snapshots and diffs as JSON documents on disk.
//
// The snapshot file maps an entry key to its attributes. A missing file is
// created as "{}" on first use, and a file that cannot be read or parsed is
// treated as an empty snapshot so a damaged file never blocks a pass.
package jsonfile

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
	"sync"

	"github.com/Tommy88/xparser/internal/domain/entity"
	"github.com/Tommy88/xparser/internal/observability/logging"
)

// Default file names inside the data directory.
const (
	DefaultSnapshotFile = "games_data.json"
	DefaultDiffFile     = "diff_data.json"
)

const filePerm = 0o644

// SnapshotStore implements repository.SnapshotRepository on a single JSON file.
type SnapshotStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSnapshotStore returns a store backed by path. A nil logger uses slog.Default().
func NewSnapshotStore(path string, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *SnapshotStore) Path() string { return s.path }

// Load reads the snapshot. It never returns an error for a missing, unreadable
// or malformed file: those degrade to an empty snapshot and are logged.
// Entries that fail to decode are skipped individually.
func (s *SnapshotStore) Load(ctx context.Context) (entity.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := ensureFile(s.path); err != nil {
		s.logger.Warn("snapshot file could not be created, starting empty",
			slog.String("path", s.path),
			logging.Error(err))
		return entity.Snapshot{}, nil
	}

	raw, err := readObject(s.path)
	if err != nil {
		s.logger.Warn("snapshot file unreadable, starting empty",
			slog.String("path", s.path),
			logging.Error(err))
		return entity.Snapshot{}, nil
	}

	snap := make(entity.Snapshot, len(raw))
	for key, msg := range raw {
		var attrs entity.Attributes
		if err := json.Unmarshal(msg, &attrs); err != nil {
			s.logger.Warn("skipping malformed snapshot entry",
				slog.String("path", s.path),
				slog.String("key", key),
				logging.Error(err))
			continue
		}
		snap[key] = attrs
	}

	return snap, nil
}

// Save replaces the file contents with snap.
func (s *SnapshotStore) Save(ctx context.Context, snap entity.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil {
		snap = entity.Snapshot{}
	}
	if err := writeJSON(s.path, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// DiffStore implements repository.DiffRepository. Each save overwrites the
// previous pass's diff.
type DiffStore struct {
	path string
	mu   sync.Mutex
}

// NewDiffStore returns a diff store backed by path.
func NewDiffStore(path string) *DiffStore {
	return &DiffStore{path: path}
}

// Path returns the file the diffs are written to.
func (s *DiffStore) Path() string { return s.path }

// SaveDiff writes d to the diff file.
func (s *DiffStore) SaveDiff(ctx context.Context, d entity.Diff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if d == nil {
		d = entity.Diff{}
	}
	if err := writeJSON(s.path, d); err != nil {
		return fmt.Errorf("save diff: %w", err)
	}
	return nil
}

// ensureFile creates path (and its directory) containing "{}" when it does not exist.
func ensureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("{}"), filePerm)
}

// readObject decodes path as a JSON object, keeping values raw.
func readObject(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		// "null" decodes without error but is not an object.
		return nil, errors.New("top-level value is not an object")
	}
	return raw, nil
}

// writeJSON encodes v with 4-space indentation, without HTML escaping, into a
// temp file next to path and renames it into place.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
