// Package jsonfile stores the grimoire as a single JSON document keyed by
// ordinance id.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/platform/logging"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
	"github.com/louisbranch/arcana/internal/services/arcana/storage"
)

const snapshotTimeFormat = "20060102T150405.000Z"

// Store is a JSON file backed ordinance store. A missing file is an empty
// store; the file is created on the first write.
type Store struct {
	path        string
	snapshotDir string
	logger      *zap.Logger
	now         func() time.Time

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshotDir writes a timestamped copy of the file to dir after every
// save. Snapshot failures are logged and never fail the save.
func WithSnapshotDir(dir string) Option {
	return func(s *Store) {
		s.snapshotDir = strings.TrimSpace(dir)
	}
}

// WithLogger sets the logger used for snapshot warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logging.OrNop(logger)
	}
}

// WithClock overrides the clock used to name snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns a store for the file at path. The file does not need to exist.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	s := &Store{
		path:   filepath.Clean(path),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op; every write is flushed before PutOrdinance returns.
func (s *Store) Close() error {
	return nil
}

// LoadOrdinances reads the whole file. Corrupt JSON fails with STORE_CORRUPT.
func (s *Store) LoadOrdinances(ctx context.Context) (ordinance.Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// GetOrdinance returns the ordinance with the given id.
func (s *Store) GetOrdinance(ctx context.Context, id string) (ordinance.Ordinance, error) {
	db, err := s.LoadOrdinances(ctx)
	if err != nil {
		return ordinance.Ordinance{}, err
	}
	o, ok := db[id]
	if !ok {
		return ordinance.Ordinance{}, storage.ErrNotFound
	}
	return o, nil
}

// PutOrdinance adds o and rewrites the file atomically.
func (s *Store) PutOrdinance(ctx context.Context, o ordinance.Ordinance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("ordinance id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := db[o.ID]; ok {
		return storage.AlreadyExists(o.ID)
	}
	if existing, ok := ordinance.FindByCanonicalKey(db, o.CanonicalKey); ok {
		return storage.AlreadyExists(existing.ID)
	}
	db[o.ID] = o.Clone()

	data, err := ordinance.Export(db)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write ordinances: %w", err)
	}
	s.snapshot(data)
	return nil
}

func (s *Store) load() (ordinance.Database, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ordinance.Database{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ordinances: %w", err)
	}
	db, err := ordinance.Decode(data)
	if err != nil {
		return nil, &apperrors.Error{
			Code:     apperrors.CodeStoreCorrupt,
			Message:  "decode ordinances",
			Metadata: map[string]string{"Path": s.path},
			Cause:    err,
		}
	}
	return db, nil
}

func (s *Store) snapshot(data []byte) {
	if s.snapshotDir == "" {
		return
	}
	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	name := fmt.Sprintf("%s-%s.json", base, s.now().UTC().Format(snapshotTimeFormat))
	target := filepath.Join(s.snapshotDir, name)

	if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
		s.logger.Warn("create snapshot dir", zap.String("dir", s.snapshotDir), zap.Error(err))
		return
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		s.logger.Warn("write snapshot", zap.String("path", target), zap.Error(err))
		return
	}
	s.logger.Debug("snapshot written", zap.String("path", target))
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

var _ storage.Store = (*Store)(nil)
