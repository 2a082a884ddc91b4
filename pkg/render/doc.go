// Package render turns blueprints into pictures.
//
// # Wire Networks
//
// [ToDOT] exports the circuit and copper wire graph of a blueprint as a
// Graphviz document: one node per wired entity, one edge per wire, colored
// by wire color. [RenderSVG] lays the document out with Graphviz (compiled
// to WebAssembly, no system install needed).
//
//	dot := render.ToDOT(bp.View(), render.DOTOptions{Positions: true})
//	svg, err := render.RenderSVG(ctx, dot, render.EngineNeato)
//
// With Positions set, nodes are pinned at their grid coordinates so the
// picture matches the blueprint; otherwise Graphviz chooses a layout.
//
// # Grid Preview
//
// [Grid] draws the occupied cells of a blueprint as text, one character per
// cell. It backs the inspect command and the interactive viewer:
//
//	fmt.Print(render.Grid(bp.View(), render.GridOptions{Color: true}))
package render
