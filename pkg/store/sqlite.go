package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/errors"
)

// SQLiteStore keeps blueprints in a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. The path ":memory:"
// opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS blueprints (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		hash TEXT NOT NULL,
		entities INTEGER NOT NULL,
		tiles INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`)
	return err
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, name string, raw blueprint.Raw) (Meta, error) {
	data, meta, err := encode(name, raw)
	if err != nil {
		return Meta{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO blueprints (name, data, hash, entities, tiles, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			hash = excluded.hash,
			entities = excluded.entities,
			tiles = excluded.tiles,
			updated_at = excluded.updated_at`,
		name, data, meta.Hash, meta.Entities, meta.Tiles, meta.UpdatedAt.UnixNano())
	if err != nil {
		return Meta{}, errors.Wrap(errors.ErrCodeInternal, err, "save blueprint %s", name)
	}
	return meta, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, name string) (blueprint.Raw, Meta, error) {
	if err := errors.ValidateBlueprintName(name); err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	var (
		data    []byte
		meta    Meta
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, data, hash, entities, tiles, updated_at FROM blueprints WHERE name = ?`, name).
		Scan(&meta.Name, &data, &meta.Hash, &meta.Entities, &meta.Tiles, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return blueprint.Raw{}, Meta{}, notFound(name)
	}
	if err != nil {
		return blueprint.Raw{}, Meta{}, errors.Wrap(errors.ErrCodeInternal, err, "load blueprint %s", name)
	}
	raw, err := decode(name, data)
	if err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	meta.Size = len(data)
	meta.UpdatedAt = time.Unix(0, updated).UTC()
	return raw, meta, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, hash, entities, tiles, length(data), updated_at FROM blueprints ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list blueprints")
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var (
			m       Meta
			updated int64
		)
		if err := rows.Scan(&m.Name, &m.Hash, &m.Entities, &m.Tiles, &m.Size, &updated); err != nil {
			return nil, err
		}
		m.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateBlueprintName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM blueprints WHERE name = ?`, name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete blueprint %s", name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(name)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
