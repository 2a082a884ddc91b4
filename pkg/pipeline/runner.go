package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/cache"
	"github.com/matzehuels/gridplan/pkg/generate"
	"github.com/matzehuels/gridplan/pkg/observability"
)

// cacheKeyType labels generator results in cache hooks.
const cacheKeyType = "result"

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long generator results are cached.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLResult,
	}
}

// Execute runs the complete load → generate → apply → export pipeline.
func (r *Runner) Execute(ctx context.Context, in io.Reader, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Load
	loadStart := time.Now()
	bp, err := Load(in, opts.Catalog, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	result, err := r.Run(ctx, bp, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	return result, nil
}

// Run executes the generate → apply → export stages on a loaded blueprint.
// The blueprint is modified in place.
func (r *Runner) Run(ctx context.Context, bp *blueprint.Blueprint, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	v := bp.View()
	result := &Result{
		Blueprint: bp,
		Hash:      v.Hash(),
	}
	result.Stats.Entities = v.Len()

	r.Logger.Info("loaded blueprint",
		"entities", v.Len(),
		"tiles", len(v.Tiles()),
		"wires", v.Connections().Len())

	// Stage 2: Generate + Apply
	if opts.Generator != "" {
		genStart := time.Now()
		res, hit, err := r.GenerateWithCacheInfo(ctx, v, opts)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", opts.Generator, err)
		}
		placed, err := res.ApplyTo(bp)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", opts.Generator, err)
		}
		result.Generated = res
		result.Placed = placed
		result.Stats.Placed = len(placed)
		result.Stats.GenerateTime = time.Since(genStart)
		result.CacheInfo.GenerateHit = hit

		r.Logger.Info("generated layout",
			"generator", opts.Generator,
			"placed", len(placed),
			"rotated", len(res.Rotations),
			"cached", hit,
			"duration", result.Stats.GenerateTime)
	}

	// Stage 3: Export
	exportStart := time.Now()
	artifacts, err := Export(ctx, bp.View(), opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)

	r.Logger.Debug("exported blueprint",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// GenerateWithCacheInfo runs opts.Generator on v with caching and returns
// cache hit info. Results are keyed by the content hash of v and the
// generator's options, so equal layouts share entries.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, v *blueprint.View, opts Options) (*generate.Result, bool, error) {
	if err := generate.ValidateName(opts.Generator); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)
	opts.Generate.SetDefaults()

	hooks := observability.Cache()
	cacheKey := r.Keyer.ResultKey(v.Hash(), opts.Generator, opts.GeneratorOptions())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached generate.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				hooks.OnCacheHit(ctx, cacheKeyType)
				return &cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", cacheKey, "err", err)
		}
		hooks.OnCacheMiss(ctx, cacheKeyType)
	}

	genOpts := opts.Generate
	if genOpts.Logger == nil {
		genOpts.Logger = opts.Logger
	}
	res, err := generate.Run(ctx, opts.Generator, v, genOpts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.TTL); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}

	return res, false, nil
}

// Generate is a convenience wrapper that calls GenerateWithCacheInfo and discards the cache hit info.
func (r *Runner) Generate(ctx context.Context, v *blueprint.View, opts Options) (*generate.Result, error) {
	res, _, err := r.GenerateWithCacheInfo(ctx, v, opts)
	return res, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
