package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/pipeline"
	"github.com/matzehuels/gridplan/pkg/render"
)

// graphCommand creates the graph command for exporting wire networks.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		colorsStr  string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "graph [blueprint.json]",
		Short: "Export the wire networks of a blueprint as DOT or SVG",
		Long: `Export the wire networks of a blueprint as DOT or SVG.

Every entity with a wire becomes a node and every red, green or copper wire an
edge. With --positions nodes are pinned at their grid position and the neato
engine is used, so the drawing follows the blueprint layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			for _, f := range opts.Formats {
				if f != pipeline.FormatDOT && f != pipeline.FormatSVG {
					return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg)", f)
				}
			}
			colors, err := parseColors(colorsStr)
			if err != nil {
				return err
			}
			opts.Wires.Colors = colors
			return c.runGraph(cmd, args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (single format), base path (several) or "-" for stdout`)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot (comma-separated)")
	cmd.Flags().StringVar(&colorsStr, "colors", "", "wire colors to export: red, green, copper (comma-separated, default all)")
	cmd.Flags().BoolVar(&opts.Wires.Isolated, "isolated", false, "include entities without wires")
	cmd.Flags().BoolVar(&opts.Wires.Positions, "positions", false, "pin nodes at their grid positions")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "graphviz engine: dot (default), neato (default with --positions)")

	return cmd
}

func parseColors(s string) ([]blueprint.Color, error) {
	if s == "" {
		return nil, nil
	}
	var out []blueprint.Color
	for _, part := range strings.Split(s, ",") {
		c := blueprint.Color(strings.TrimSpace(part))
		if !c.Valid() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid wire color %q (must be one of: red, green, copper)", part)
		}
		out = append(out, c)
	}
	return out, nil
}

func (c *CLI) runGraph(cmd *cobra.Command, input string, opts pipeline.Options, output string) error {
	ctx := cmd.Context()
	bp, err := c.readBlueprint(input)
	if err != nil {
		return err
	}
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	artifacts, err := pipeline.Export(ctx, bp.View(), opts)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	params := artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		suffix:    "wires",
		output:    output,
		stdout:    cmd.OutOrStdout(),
	}
	paths, err := writeArtifacts(params)
	if err != nil {
		return err
	}
	if params.toStdout() {
		return nil
	}

	w := cmd.OutOrStdout()
	printSuccess(w, "Exported %d wires", bp.Connections().Len())
	for _, p := range paths {
		printFile(w, p)
	}
	if opts.Engine != render.EngineDot {
		printDetail(w, "engine: %s", opts.Engine)
	}
	return nil
}
