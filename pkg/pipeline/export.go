package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/render"
)

// Export writes a snapshot in every format of opts.Formats.
func Export(ctx context.Context, v *blueprint.View, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = v.ToRaw().Encode(&buf)
			data = buf.Bytes()
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = render.ToDOT(v, opts.Wires)
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = render.RenderSVG(ctx, dot, opts.Engine)
			}
		case FormatText:
			data = []byte(render.Grid(v, render.GridOptions{}))
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
