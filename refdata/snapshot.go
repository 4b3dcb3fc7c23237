package refdata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hugr-lab/airportlog/internal/msgpack"
	"github.com/hugr-lab/airportlog/internal/serialize"
)

// SnapshotVersion is bumped whenever Record changes shape.
// Snapshots with another version are treated as a miss.
const SnapshotVersion = 1

// ErrNoSnapshot is returned by a SnapshotStore that holds no snapshot.
var ErrNoSnapshot = errors.New("no catalog snapshot")

type snapshot struct {
	Version int      `msgpack:"v"`
	Source  string   `msgpack:"src"`
	Taken   int64    `msgpack:"ts"`
	Records []Record `msgpack:"records"`
}

// EncodeSnapshot serializes a catalog as zstd-compressed MessagePack.
func EncodeSnapshot(source string, c *Catalog) ([]byte, error) {
	s := snapshot{
		Version: SnapshotVersion,
		Source:  source,
		Taken:   time.Now().Unix(),
	}
	if c != nil {
		s.Records = c.records
	}

	raw, err := msgpack.Encode(&s)
	if err != nil {
		return nil, err
	}
	return serialize.Compress(raw)
}

// DecodeSnapshot restores a catalog written by EncodeSnapshot.
// It returns ErrNoSnapshot for a snapshot of another version.
func DecodeSnapshot(data []byte) (*Catalog, string, error) {
	raw, err := serialize.Decompress(data)
	if err != nil {
		return nil, "", err
	}

	var s snapshot
	if err := msgpack.Decode(raw, &s); err != nil {
		return nil, "", err
	}
	if s.Version != SnapshotVersion {
		return nil, "", fmt.Errorf("%w: version %d", ErrNoSnapshot, s.Version)
	}
	return NewCatalog(s.Records), s.Source, nil
}

// SnapshotStore persists one encoded catalog snapshot.
type SnapshotStore interface {
	// Get returns the stored snapshot or ErrNoSnapshot.
	Get(ctx context.Context) ([]byte, error)

	// Put replaces the stored snapshot.
	Put(ctx context.Context, data []byte) error
}

// FileStore keeps the snapshot in a single file.
type FileStore struct {
	Path string
}

// Get implements SnapshotStore.
func (s *FileStore) Get(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// Put implements SnapshotStore. The file is replaced atomically.
func (s *FileStore) Put(ctx context.Context, data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path)
}

// CachedSource serves the catalog from a snapshot when one is available and
// falls back to the wrapped source otherwise, writing the fresh catalog back.
type CachedSource struct {
	// Source is consulted on a snapshot miss.
	// REQUIRED.
	Source Source

	// Store holds the snapshot.
	// REQUIRED.
	Store SnapshotStore

	// Logger for snapshot failures.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger
}

// Name implements Source.
func (s *CachedSource) Name() string {
	return "snapshot(" + s.Source.Name() + ")"
}

// Fetch implements Source.
// A damaged snapshot is treated as a miss. Failing to write the snapshot back
// is logged and does not fail the fetch.
func (s *CachedSource) Fetch(ctx context.Context) (*Catalog, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	data, err := s.Store.Get(ctx)
	switch {
	case err == nil:
		c, src, err := DecodeSnapshot(data)
		if err == nil {
			logger.Debug("catalog snapshot hit", "source", src, "records", c.Len())
			return c, nil
		}
		logger.Warn("discarding catalog snapshot", "error", err)
	case !errors.Is(err, ErrNoSnapshot):
		logger.Warn("failed to read catalog snapshot", "error", err)
	}

	c, err := s.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	data, err = EncodeSnapshot(s.Source.Name(), c)
	if err == nil {
		err = s.Store.Put(ctx, data)
	}
	if err != nil {
		logger.Warn("failed to store catalog snapshot", "error", err)
	}
	return c, nil
}
