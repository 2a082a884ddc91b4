package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/catalog"
)

// Load decodes a raw JSON blueprint. A nil catalog means the built-in one.
func Load(r io.Reader, cat *catalog.Catalog, logger *log.Logger) (*blueprint.Blueprint, error) {
	if cat == nil {
		cat = catalog.Builtin()
	}
	var opts []blueprint.Option
	if logger != nil {
		opts = append(opts, blueprint.WithLogger(logger))
	}
	return blueprint.ReadJSON(cat, r, opts...)
}
