package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gridplan/pkg/blueprint"
)

// Graphviz layout engines accepted by [RenderSVG].
const (
	EngineDot   = "dot"
	EngineNeato = "neato"
)

// pointsPerCell scales grid coordinates to Graphviz points.
const pointsPerCell = 36

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Colors limits the export to wires of these colors. Empty means every
	// color.
	Colors []blueprint.Color

	// Isolated also emits entities without any exported wire.
	Isolated bool

	// Positions pins every node at its grid position. Use with
	// [EngineNeato].
	Positions bool
}

func (o DOTOptions) wants(c blueprint.Color) bool {
	return len(o.Colors) == 0 || slices.Contains(o.Colors, c)
}

var wireColors = map[blueprint.Color]string{
	blueprint.Red:    "#d62728",
	blueprint.Green:  "#2ca02c",
	blueprint.Copper: "#c87533",
}

// ToDOT converts the wire graph of v to an undirected Graphviz document.
// Nodes are emitted in id order and edges in connection order, so equal
// blueprints produce identical output.
func ToDOT(v *blueprint.View, opts DOTOptions) string {
	var wires []blueprint.Connection
	wired := make(map[blueprint.EntityID]bool)
	for _, c := range v.Connections().All() {
		if !opts.wants(c.Color) {
			continue
		}
		wires = append(wires, c)
		wired[c.A] = true
		wired[c.B] = true
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [penwidth=2];\n")
	buf.WriteString("\n")

	for _, e := range v.Entities() {
		if !wired[e.ID] && !opts.Isolated {
			continue
		}
		label := fmt.Sprintf("%s #%d", e.Kind, e.ID)
		if opts.Positions {
			// Graphviz y grows upwards.
			fmt.Fprintf(&buf, "  \"%d\" [label=%q, pos=\"%g,%g!\"];\n",
				e.ID, label, e.Position.X*pointsPerCell, -e.Position.Y*pointsPerCell)
		} else {
			fmt.Fprintf(&buf, "  \"%d\" [label=%q];\n", e.ID, label)
		}
	}

	buf.WriteString("\n")
	for _, c := range wires {
		attrs := fmt.Sprintf("color=%q", wireColors[c.Color])
		if c.SideA > 1 || c.SideB > 1 {
			attrs += fmt.Sprintf(", taillabel=\"%d\", headlabel=\"%d\"", c.SideA, c.SideB)
		}
		fmt.Fprintf(&buf, "  \"%d\" -- \"%d\" [%s];\n", c.A, c.B, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG lays out a DOT document with the given engine and renders it to
// SVG.
func RenderSVG(ctx context.Context, dot string, engine string) ([]byte, error) {
	if engine == "" {
		engine = EngineDot
	}
	if engine != EngineDot && engine != EngineNeato {
		return nil, fmt.Errorf("unknown layout engine %q (must be one of: dot, neato)", engine)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
