package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/gridplan/pkg/cache"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/generate"
)

func TestDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	c := Default()
	if c.Cache.Backend != CacheFile {
		t.Errorf("Cache.Backend = %q, want %q", c.Cache.Backend, CacheFile)
	}
	if c.Cache.Dir != "/tmp/xdg-cache/gridplan" {
		t.Errorf("Cache.Dir = %q", c.Cache.Dir)
	}
	if c.Cache.TTL != cache.TTLResult {
		t.Errorf("Cache.TTL = %v, want %v", c.Cache.TTL, cache.TTLResult)
	}
	if c.Store.Backend != StoreFile || c.Store.Dir != "/tmp/xdg-data/gridplan/blueprints" {
		t.Errorf("Store = %+v", c.Store)
	}
	if c.Store.Path != "/tmp/xdg-data/gridplan/blueprints.db" {
		t.Errorf("Store.Path = %q", c.Store.Path)
	}
	if c.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", c.Server.Addr, DefaultAddr)
	}
	if c.Generate.Poles.Kind != generate.DefaultPoleKind {
		t.Errorf("Generate.Poles.Kind = %q", c.Generate.Poles.Kind)
	}
	if c.Path() != "" {
		t.Errorf("Path() = %q, want empty", c.Path())
	}
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
[generate.pipes]
min_gap = 2
no_underground = true

[generate.poles]
kind = "small-electric-pole"

[cache]
backend = "redis"
ttl = "24h"
redis = { addr = "localhost:6379", prefix = "gp:" }

[store]
backend = "sqlite"
path = "/var/lib/gridplan/blueprints.db"

[server]
addr = "127.0.0.1:9000"
read_timeout = "5s"
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if c.Generate.Pipes.MinGap != 2 || !c.Generate.Pipes.NoUnderground {
		t.Errorf("Generate.Pipes = %+v", c.Generate.Pipes)
	}
	if c.Generate.Pipes.PipeKind != generate.DefaultPipeKind {
		t.Errorf("unset PipeKind = %q, want default", c.Generate.Pipes.PipeKind)
	}
	if c.Generate.Poles.Kind != "small-electric-pole" {
		t.Errorf("Generate.Poles.Kind = %q", c.Generate.Poles.Kind)
	}
	if c.Cache.Backend != CacheRedis || c.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache = %+v", c.Cache)
	}
	if c.Cache.Redis.Addr != "localhost:6379" || c.Cache.Redis.Prefix != "gp:" {
		t.Errorf("Cache.Redis = %+v", c.Cache.Redis)
	}
	if c.Store.Backend != StoreSQLite || c.Store.Path != "/var/lib/gridplan/blueprints.db" {
		t.Errorf("Store = %+v", c.Store)
	}
	if c.Server.Addr != "127.0.0.1:9000" || c.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server = %+v", c.Server)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"syntax", `[cache`, errors.ErrCodeInvalidFormat},
		{"unknown key", "[cache]\nbakend = \"file\"", errors.ErrCodeInvalidFormat},
		{"unknown cache backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidInput},
		{"redis without addr", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidInput},
		{"unknown store backend", "[store]\nbackend = \"s3\"", errors.ErrCodeInvalidInput},
		{"mongo without uri", "[store]\nbackend = \"mongo\"", errors.ErrCodeInvalidInput},
		{"negative ttl", "[cache]\nttl = \"-1h\"", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("catalog = \"catalog.yaml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Path() != path {
		t.Errorf("Path() = %q, want %q", c.Path(), path)
	}
	if want := filepath.Join(dir, "catalog.yaml"); c.Catalog != want {
		t.Errorf("Catalog = %q, want %q", c.Catalog, want)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("missing file error = %v, want INVALID_PATH", err)
	}
}

func TestFind(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Setenv(EnvPath, "/etc/gridplan.toml")
	if got := Find(); got != "/etc/gridplan.toml" {
		t.Errorf("Find() = %q, want env path", got)
	}

	t.Setenv(EnvPath, "")
	xdg := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName)
	if err := os.MkdirAll(xdg, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(xdg, FileName)
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// Run from a directory without a local gridplan.toml.
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if got := Find(); got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestLoadCatalog(t *testing.T) {
	c := Default()
	cat, err := c.LoadCatalog()
	if err != nil || cat == nil {
		t.Fatalf("LoadCatalog() = %v, %v", cat, err)
	}
	if _, ok := cat.Lookup("pumpjack"); !ok {
		t.Error("built-in catalog is missing pumpjack")
	}

	c.Catalog = filepath.Join(t.TempDir(), "none.toml")
	if _, err := c.LoadCatalog(); err == nil {
		t.Error("LoadCatalog() of a missing file succeeded")
	}
}

func TestLoadExample(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "examples", FileName))
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if c.Store.Backend != StoreSQLite {
		t.Errorf("Store.Backend = %q, want %q", c.Store.Backend, StoreSQLite)
	}
	if c.Cache.TTL != 168*time.Hour {
		t.Errorf("Cache.TTL = %v, want 168h", c.Cache.TTL)
	}
	if c.Generate.Pipes.MinGap != 2 || c.Generate.Beacons.MinAffected != 2 {
		t.Errorf("Generate = %+v", c.Generate)
	}
}
