// Package pipeline provides the load → generate → apply → export pipeline
// shared by the CLI and the HTTP API.
//
// By centralizing this logic, both entry points validate options, cache
// generator results and export blueprints the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Decode a raw blueprint against a catalog
//  2. Generate: Run a layout generator on a snapshot (cached)
//  3. Apply: Submit the result as one undoable edit
//  4. Export: Write the blueprint in the requested formats
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, file, pipeline.Options{
//	    Generator: "pipes",
//	    Formats:   []string{"json", "txt"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := result.Artifacts["json"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/generate"
	"github.com/matzehuels/gridplan/pkg/render"
)

// Format constants for output formats.
const (
	FormatJSON = "json" // raw blueprint
	FormatDOT  = "dot"  // wire networks as Graphviz source
	FormatSVG  = "svg"  // wire networks rendered by Graphviz
	FormatText = "txt"  // grid preview
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatText: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Generator names the layout generator to run. Empty skips the generate
	// and apply stages.
	Generator string `json:"generator,omitempty"`

	// Generate holds the options of every generator; only the section of
	// Generator is used.
	Generate generate.Options `json:"generate"`

	// Formats lists the exports to produce.
	Formats []string `json:"formats,omitempty"`

	// Wires configures the dot and svg exports.
	Wires render.DOTOptions `json:"-"`
	// Engine is the Graphviz engine of the svg export.
	Engine string `json:"engine,omitempty"`

	// Refresh ignores cached generator results.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Catalog *catalog.Catalog `json:"-"`
	Logger  *log.Logger      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Blueprint is the loaded blueprint with the generator result applied.
	Blueprint *blueprint.Blueprint

	// Hash is the content hash of the blueprint before generation.
	Hash string

	// Generated is the generator output, nil when no generator ran.
	Generated *generate.Result

	// Placed are the ids of the entities the generator added.
	Placed []blueprint.EntityID

	// Artifacts contains exports keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Entities     int
	Placed       int
	LoadTime     time.Duration
	GenerateTime time.Duration
	ExportTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GenerateHit bool // Whether the generator result came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg, txt)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if o.Generator != "" {
		if err := generate.ValidateName(o.Generator); err != nil {
			return err
		}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Engine != render.EngineDot && o.Engine != render.EngineNeato {
		return errors.New(errors.ErrCodeInvalidInput, "invalid engine: %q (must be one of: dot, neato)", o.Engine)
	}
	o.validated = true
	return nil
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Engine == "" {
		o.Engine = render.EngineDot
		if o.Wires.Positions {
			o.Engine = render.EngineNeato
		}
	}
	if o.Catalog == nil {
		o.Catalog = catalog.Builtin()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.Generate.SetDefaults()
}

// GeneratorOptions returns the options section of the selected generator,
// the value its cache key is derived from.
func (o *Options) GeneratorOptions() any {
	switch o.Generator {
	case generate.GeneratorPipes:
		return o.Generate.Pipes
	case generate.GeneratorPoles:
		return o.Generate.Poles
	case generate.GeneratorBeacons:
		return o.Generate.Beacons
	}
	return nil
}
