package geom

import (
	"math"
	"sort"

	"github.com/fogleman/delaunay"
)

// Edge is an undirected pair of point indices with A < B.
type Edge struct {
	A, B int
}

func newEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// CandidateEdges returns the sparse set of index pairs worth connecting: the
// edges of the Delaunay triangulation of points. With fewer than three
// distinct points, or when all points are collinear, it falls back to a
// chain through the points sorted by (X, Y). Duplicate points are linked to
// their first occurrence.
//
// The result is sorted by (A, B) and contains no duplicates.
func CandidateEdges(points []Vec) []Edge {
	if len(points) < 2 {
		return nil
	}

	first := make(map[Vec]int, len(points))
	var uniq []int
	edges := make(map[Edge]struct{})
	for i, p := range points {
		if j, ok := first[p]; ok {
			edges[newEdge(j, i)] = struct{}{}
			continue
		}
		first[p] = i
		uniq = append(uniq, i)
	}

	var tri []Edge
	if len(uniq) >= 3 && !collinear(points, uniq) {
		tri = triangulate(points, uniq)
	}
	if len(tri) == 0 {
		tri = chain(points, uniq)
	}
	for _, e := range tri {
		edges[e] = struct{}{}
	}

	out := make([]Edge, 0, len(edges))
	for e := range edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

func chain(points []Vec, idx []int) []Edge {
	order := append([]int(nil), idx...)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := points[order[i]], points[order[j]]
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	var out []Edge
	for i := 1; i < len(order); i++ {
		out = append(out, newEdge(order[i-1], order[i]))
	}
	return out
}

func collinear(points []Vec, idx []int) bool {
	a, b := points[idx[0]], points[idx[1]]
	for _, i := range idx[2:] {
		c := points[i]
		if math.Abs((b.X-a.X)*(c.Y-a.Y)-(b.Y-a.Y)*(c.X-a.X)) > 1e-9 {
			return false
		}
	}
	return true
}

// triangulate returns the Delaunay edges between the selected points, or
// nil when the triangulation does not exist.
func triangulate(points []Vec, idx []int) []Edge {
	pts := make([]delaunay.Point, len(idx))
	for k, i := range idx {
		pts[k] = delaunay.Point{X: points[i].X, Y: points[i].Y}
	}
	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		return nil
	}
	out := make([]Edge, 0, len(tri.Triangles))
	for t := 0; t+2 < len(tri.Triangles); t += 3 {
		for k := 0; k < 3; k++ {
			a, b := tri.Triangles[t+k], tri.Triangles[t+(k+1)%3]
			out = append(out, newEdge(idx[a], idx[b]))
		}
	}
	return out
}
