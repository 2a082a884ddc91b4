// Package config loads gridplan.toml.
//
// A configuration file is optional. Every field has a default, and command
// line flags override what the file says:
//
//	catalog = "mods/catalog.toml"
//
//	[generate.pipes]
//	min_gap = 2
//
//	[generate.poles]
//	kind = "small-electric-pole"
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	redis = { addr = "localhost:6379", prefix = "gridplan:" }
//
//	[store]
//	backend = "sqlite"
//	path = "/var/lib/gridplan/blueprints.db"
//
//	[server]
//	addr = ":8080"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gridplan/pkg/cache"
	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/generate"
)

// FileName is the configuration file looked up by [Find].
const FileName = "gridplan.toml"

// EnvPath names an environment variable holding the configuration path.
const EnvPath = "GRIDPLAN_CONFIG"

const appName = "gridplan"

// Cache backends.
const (
	CacheNull  = "null"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Defaults.
const (
	DefaultAddr          = ":8080"
	DefaultMongoDatabase = "gridplan"
	DefaultMaxBodyBytes  = 8 << 20
	DefaultReadTimeout   = 30 * time.Second
)

// Config is the content of gridplan.toml.
type Config struct {
	// Catalog is the path of a TOML or YAML entity catalog. Empty means the
	// built-in catalog.
	Catalog string `toml:"catalog"`

	Generate generate.Options `toml:"generate"`
	Cache    CacheConfig      `toml:"cache"`
	Store    StoreConfig      `toml:"store"`
	Server   ServerConfig     `toml:"server"`

	// path is the file the configuration was read from.
	path string
}

// CacheConfig selects the generator-result cache.
type CacheConfig struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	Redis   RedisConfig   `toml:"redis"`
}

// RedisConfig configures the redis cache.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// StoreConfig selects where saved blueprints live.
type StoreConfig struct {
	Backend string `toml:"backend"`

	// Dir is used by the file backend.
	Dir string `toml:"dir"`
	// Path is used by the sqlite backend.
	Path string `toml:"path"`
	// URI and Database are used by the mongo backend.
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
}

// Path returns the file the configuration was read from, or "" for the
// defaults.
func (c *Config) Path() string { return c.path }

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads the configuration at path and applies defaults. Unknown keys
// are rejected so typos do not go unnoticed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config")
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	c.path = path
	if c.Catalog != "" && !filepath.IsAbs(c.Catalog) {
		c.Catalog = filepath.Join(filepath.Dir(path), c.Catalog)
	}
	return c, nil
}

// Parse decodes configuration text and applies defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Find returns the configuration path to use: $GRIDPLAN_CONFIG, then
// ./gridplan.toml, then $XDG_CONFIG_HOME/gridplan/gridplan.toml. It
// returns "" when none exists.
func Find() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	candidates := []string{FileName}
	if dir, err := configDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, FileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadOrDefault loads the file found by [Find], or returns the defaults.
func LoadOrDefault() (*Config, error) {
	if p := Find(); p != "" {
		return Load(p)
	}
	return Default(), nil
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	c.Generate.SetDefaults()

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			c.Cache.Dir = dir
		}
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = cache.TTLResult
	}

	if c.Store.Backend == "" {
		c.Store.Backend = StoreFile
	}
	if c.Store.Dir == "" || c.Store.Path == "" {
		if dir, err := dataDir(); err == nil {
			if c.Store.Dir == "" {
				c.Store.Dir = filepath.Join(dir, "blueprints")
			}
			if c.Store.Path == "" {
				c.Store.Path = filepath.Join(dir, "blueprints.db")
			}
		}
	}
	if c.Store.Database == "" {
		c.Store.Database = DefaultMongoDatabase
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Validate checks backend names and their required settings.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheNull, CacheFile:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis.addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid cache.backend %q (must be one of: null, file, redis)", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case StoreFile, StoreSQLite:
	case StoreMongo:
		if c.Store.URI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid store.backend %q (must be one of: file, sqlite, mongo)", c.Store.Backend)
	}

	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	return nil
}

// LoadCatalog returns the configured catalog.
func (c *Config) LoadCatalog() (*catalog.Catalog, error) {
	if c.Catalog == "" {
		return catalog.Builtin(), nil
	}
	return catalog.Load(c.Catalog)
}

// CacheDir returns the cache directory using XDG standard (~/.cache/gridplan/).
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
