// Package store keeps saved blueprints under names.
//
// Three backends implement [Store]:
//   - [FileStore] writes one JSON file per blueprint (CLI default)
//   - [SQLiteStore] keeps every blueprint in one sqlite database
//   - [MongoStore] shares blueprints between API servers
//
// Blueprints are stored in their raw form, so a store never needs the
// catalog; loading validates them again.
package store

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/cache"
	"github.com/matzehuels/gridplan/pkg/config"
	"github.com/matzehuels/gridplan/pkg/errors"
)

// Store persists raw blueprints. Implementations are safe for concurrent
// use.
type Store interface {
	// Save stores raw under name, replacing any previous blueprint.
	Save(ctx context.Context, name string, raw blueprint.Raw) (Meta, error)

	// Load returns the blueprint saved under name, or a NOT_FOUND error.
	Load(ctx context.Context, name string) (blueprint.Raw, Meta, error)

	// List returns every saved blueprint ordered by name.
	List(ctx context.Context) ([]Meta, error)

	// Delete removes the blueprint saved under name, or returns a NOT_FOUND
	// error.
	Delete(ctx context.Context, name string) error

	// Close releases resources held by the store.
	Close() error
}

// Meta describes a saved blueprint.
type Meta struct {
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	Entities  int       `json:"entities"`
	Tiles     int       `json:"tiles"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewName returns a fresh name for a blueprint saved without one.
func NewName() string {
	return uuid.NewString()
}

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreFile, "":
		return NewFileStore(cfg.Dir)
	case config.StoreSQLite:
		return OpenSQLite(cfg.Path)
	case config.StoreMongo:
		return OpenMongo(ctx, cfg.URI, cfg.Database)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
}

// encode serializes raw and describes it.
func encode(name string, raw blueprint.Raw) ([]byte, Meta, error) {
	if err := errors.ValidateBlueprintName(name); err != nil {
		return nil, Meta{}, err
	}
	var buf bytes.Buffer
	if err := raw.Encode(&buf); err != nil {
		return nil, Meta{}, errors.Wrap(errors.ErrCodeInternal, err, "encode blueprint %s", name)
	}
	data := buf.Bytes()
	return data, Meta{
		Name:      name,
		Hash:      cache.Hash(data),
		Entities:  len(raw.Entities),
		Tiles:     len(raw.Tiles),
		Size:      len(data),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func decode(name string, data []byte) (blueprint.Raw, error) {
	raw, err := blueprint.DecodeRaw(bytes.NewReader(data))
	if err != nil {
		return blueprint.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "stored blueprint %s", name)
	}
	return raw, nil
}

func notFound(name string) error {
	return errors.New(errors.ErrCodeNotFound, "blueprint %q not found", name)
}
