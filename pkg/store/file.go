package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/cache"
	"github.com/matzehuels/gridplan/pkg/errors"
)

const fileExt = ".json"

// FileStore keeps each blueprint in <dir>/<name>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "store directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, name string, raw blueprint.Raw) (Meta, error) {
	data, meta, err := encode(name, raw)
	if err != nil {
		return Meta{}, err
	}

	// Write then rename so readers never see a partial blueprint.
	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return Meta{}, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Meta{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Meta{}, err
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string) (blueprint.Raw, Meta, error) {
	if err := errors.ValidateBlueprintName(name); err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	path := s.path(name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return blueprint.Raw{}, Meta{}, notFound(name)
	}
	if err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	raw, err := decode(name, data)
	if err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return blueprint.Raw{}, Meta{}, err
	}
	return raw, s.meta(name, data, raw, info), nil
}

// List implements Store.
func (s *FileStore) List(ctx context.Context) ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []Meta
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), fileExt)
		if !ok || e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		_, meta, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateBlueprintName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return notFound(name)
	}
	return err
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStore) meta(name string, data []byte, raw blueprint.Raw, info os.FileInfo) Meta {
	return Meta{
		Name:      name,
		Hash:      cache.Hash(data),
		Entities:  len(raw.Entities),
		Tiles:     len(raw.Tiles),
		Size:      len(data),
		UpdatedAt: info.ModTime().UTC(),
	}
}
