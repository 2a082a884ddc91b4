// Package geom provides the integer grid geometry shared by the blueprint
// engine and the layout generators.
//
// # Coordinates
//
// The grid is made of unit cells addressed by integer [Point] values. Entity
// positions are footprint centers expressed as [Vec] values: a 1×1 entity
// sitting in cell (3, 4) has center (3.5, 4.5), a 2×2 entity covering cells
// (0,0)..(1,1) has center (1, 1). [AreaAt] converts a center and a footprint
// size into the [Area] of covered cells, and [Area.Center] goes back.
//
// # Directions
//
// [Direction] uses the eight-step encoding of the exchange format, restricted
// to the four cardinal values: [North] = 0, [East] = 2, [South] = 4 and
// [West] = 6. Rotating clockwise adds two modulo eight.
//
// # Algorithms
//
//   - [CandidateEdges]: Delaunay triangulation edges of a point set, with a
//     chain fallback for fewer than three or collinear points. Generators use
//     these as the sparse set of "worth connecting" pairs.
//   - [ShortestPath]: breadth-first search over (cell, heading, turns) states
//     with an optional cap on the number of turns. Uncapped searches drop the
//     turn count from the state and visit every cell at most four times.
//
// All functions are deterministic: equal inputs produce equal outputs,
// including the order of returned slices.
package geom
