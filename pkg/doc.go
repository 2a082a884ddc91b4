// Package pkg provides the core libraries of gridplan, a grid blueprint
// editor with layout generators.
//
// # Overview
//
// A blueprint is a set of entities placed on an integer grid, floor tiles
// and the wires between entities. Gridplan keeps every edit undoable, checks
// overlap rules on each placement and can lay out pipes, electric poles and
// beacons around the entities already present. The pkg directory is
// organized into four areas:
//
//  1. Domain: [geom], [catalog], [blueprint]
//  2. Generators: [generate]
//  3. Orchestration: [pipeline], [render]
//  4. Infrastructure: [cache], [store], [config], [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	blueprint JSON
//	     ↓
//	[blueprint] package (FromRaw: entities, tiles, wires)
//	     ↓
//	[generate] package (pipes, poles or beacons on a View snapshot)
//	     ↓
//	[blueprint] package (Apply the result as one undoable batch)
//	     ↓
//	JSON / DOT / SVG / text output
//
// # Quick Start
//
// Load a blueprint, power it and write it back:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/gridplan/pkg/blueprint"
//	    "github.com/matzehuels/gridplan/pkg/catalog"
//	    "github.com/matzehuels/gridplan/pkg/generate"
//	)
//
//	// 1. Load
//	bp, _ := blueprint.ReadJSON(catalog.Builtin(), in)
//
//	// 2. Generate on an immutable snapshot
//	res, _ := generate.Run(context.Background(), generate.GeneratorPoles, bp.View(), generate.Options{})
//
//	// 3. Apply as one history entry
//	placed, _ := res.ApplyTo(bp)
//
//	// 4. Write
//	bp.WriteJSON(out)
//
// # Main Packages
//
// ## Domain
//
// [geom] - Points, areas and the four cardinal directions. Entity centers are
// half-cell vectors; footprints are integer areas.
//
// [catalog] - Entity kinds (footprint, rotations, roles, fluid plugs, reach)
// read from TOML or YAML. [catalog.Builtin] embeds a default catalog.
//
// [blueprint] - The editor core: persistent entity and tile tables, a
// position grid enforcing overlap rules, the wire graph and the edit history
// with undo and redo. [blueprint.View] is an immutable snapshot safe to hand
// to another goroutine.
//
// ## Generators
//
// [generate] - Pipe routing between pumpjacks, electric pole placement and
// wiring, and beacon placement. Generators read a View and return a
// [generate.Result] that applies as one batch.
//
// ## Orchestration
//
// [pipeline] - Load → generate (cached) → apply → export, shared by the CLI
// and the HTTP API.
//
// [render] - Wire networks as Graphviz DOT or SVG, and the character grid
// preview used by the terminal viewer.
//
// ## Infrastructure
//
// [cache] - Generator result caches: null, zstd-compressed files, Redis.
//
// [store] - Saved blueprints: JSON files, SQLite or MongoDB.
//
// [config] - The gridplan.toml configuration file.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/blueprint/...          # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/geom
// [catalog]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/catalog
// [blueprint]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/blueprint
// [generate]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/generate
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/gridplan/pkg/buildinfo
package pkg
