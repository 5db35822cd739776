package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/arcana/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
	"github.com/louisbranch/arcana/internal/services/arcana/storage"
	"github.com/louisbranch/arcana/internal/services/arcana/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const selectColumns = `id, canonical_key, name, precept_id, numen_ids_json, modifiers_json,
	narrative, notes, complexity, tier, created_by, source`

// Store provides a SQLite-backed ordinance store.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite store at the provided path and applies the embedded
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: time.Now}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadOrdinances returns every stored ordinance keyed by id.
func (s *Store) LoadOrdinances(ctx context.Context) (ordinance.Database, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+selectColumns+" FROM ordinances ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query ordinances: %w", err)
	}
	defer rows.Close()

	db := ordinance.Database{}
	for rows.Next() {
		o, err := scanOrdinance(rows)
		if err != nil {
			return nil, err
		}
		db[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ordinances: %w", err)
	}
	return db, nil
}

// GetOrdinance returns the ordinance with the given id.
func (s *Store) GetOrdinance(ctx context.Context, id string) (ordinance.Ordinance, error) {
	if err := s.ready(ctx); err != nil {
		return ordinance.Ordinance{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM ordinances WHERE id = ?", id)
	o, err := scanOrdinance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ordinance.Ordinance{}, storage.ErrNotFound
	}
	return o, err
}

// PutOrdinance inserts o. Id and canonical key conflicts map to
// storage.ErrAlreadyExists.
func (s *Store) PutOrdinance(ctx context.Context, o ordinance.Ordinance) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("ordinance id is required")
	}

	numenJSON, err := marshalList(o.NumenIDs)
	if err != nil {
		return fmt.Errorf("encode numen ids: %w", err)
	}
	modifiersJSON, err := marshalList(o.Modifiers)
	if err != nil {
		return fmt.Errorf("encode modifiers: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO ordinances (
    id, canonical_key, name, precept_id, numen_ids_json, modifiers_json,
    narrative, notes, complexity, tier, created_by, source, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CanonicalKey, o.Name, o.PreceptID, numenJSON, modifiersJSON,
		o.Mechanical.Narrative, o.Mechanical.Notes, o.Cost.Complexity, o.Tier,
		o.Meta.CreatedBy, o.Meta.Source, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		if sqlitemigrate.IsUniqueConstraintError(err) {
			return s.conflict(ctx, o)
		}
		return fmt.Errorf("insert ordinance: %w", err)
	}
	return nil
}

// conflict names the stored ordinance that blocked an insert.
func (s *Store) conflict(ctx context.Context, o ordinance.Ordinance) error {
	var id string
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT id FROM ordinances WHERE id = ? OR canonical_key = ? ORDER BY id LIMIT 1", o.ID, o.CanonicalKey)
	if err := row.Scan(&id); err != nil {
		return storage.AlreadyExists(o.ID)
	}
	return storage.AlreadyExists(id)
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrdinance(row rowScanner) (ordinance.Ordinance, error) {
	var (
		o             ordinance.Ordinance
		numenJSON     string
		modifiersJSON string
	)
	if err := row.Scan(
		&o.ID, &o.CanonicalKey, &o.Name, &o.PreceptID, &numenJSON, &modifiersJSON,
		&o.Mechanical.Narrative, &o.Mechanical.Notes, &o.Cost.Complexity, &o.Tier,
		&o.Meta.CreatedBy, &o.Meta.Source,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ordinance.Ordinance{}, err
		}
		return ordinance.Ordinance{}, fmt.Errorf("scan ordinance: %w", err)
	}
	o.Cost.Tier = o.Tier

	if err := json.Unmarshal([]byte(numenJSON), &o.NumenIDs); err != nil {
		return ordinance.Ordinance{}, fmt.Errorf("decode numen ids for %s: %w", o.ID, err)
	}
	var mods []rules.Selection
	if err := json.Unmarshal([]byte(modifiersJSON), &mods); err != nil {
		return ordinance.Ordinance{}, fmt.Errorf("decode modifiers for %s: %w", o.ID, err)
	}
	o.Modifiers = mods
	return o, nil
}

func marshalList[T any](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var _ storage.Store = (*Store)(nil)
