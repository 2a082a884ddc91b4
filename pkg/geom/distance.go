package geom

import "math"

// Dist returns the Euclidean distance between two positions.
func Dist(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistSq returns the squared Euclidean distance.
func DistSq(a, b Vec) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// Manhattan returns the L1 distance between two cells.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Chebyshev returns the L∞ distance between two cells.
func Chebyshev(a, b Point) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// Centroid returns the mean of the positions, or the zero Vec for none.
func Centroid(vs []Vec) Vec {
	if len(vs) == 0 {
		return Vec{}
	}
	var c Vec
	for _, v := range vs {
		c.X += v.X
		c.Y += v.Y
	}
	n := float64(len(vs))
	return Vec{c.X / n, c.Y / n}
}

// CentroidOf returns the centroid of the cell centers.
func CentroidOf(points []Point) Vec {
	vs := make([]Vec, len(points))
	for i, p := range points {
		vs[i] = p.Center()
	}
	return Centroid(vs)
}

// InCircle reports whether p lies within radius r of c.
func InCircle(c Vec, r float64, p Vec) bool {
	return DistSq(c, p) <= r*r+1e-9
}

// InSquare reports whether p lies in the axis-aligned square of half-size
// half centered at c.
func InSquare(c Vec, half float64, p Vec) bool {
	return math.Abs(p.X-c.X) <= half+1e-9 && math.Abs(p.Y-c.Y) <= half+1e-9
}

// SquareAround returns the cells covered by an axis-aligned square of
// half-size half centered at c, such as a pole's supply area.
func SquareAround(c Vec, half float64) Area {
	side := int(math.Round(2 * half))
	return AreaAt(c, side, side)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
