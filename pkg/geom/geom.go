package geom

import (
	"fmt"
	"math"
	"sort"
)

// Point is an integer grid cell.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Step returns the neighbor of p in direction d.
func (p Point) Step(d Direction) Point { return p.Add(d.Delta()) }

// Center returns the center of the cell.
func (p Point) Center() Vec { return Vec{float64(p.X) + 0.5, float64(p.Y) + 0.5} }

// Less orders points by row, then column.
func (p Point) Less(q Point) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

// Hash returns a 32-bit hash of the point, used as a persistent map key.
func (p Point) Hash() uint32 {
	h := uint64(uint32(p.X))<<32 | uint64(uint32(p.Y))
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return uint32(h)
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Vec is a continuous position, used for entity centers.
type Vec struct {
	X, Y float64
}

// Cell returns the cell containing v.
func (v Vec) Cell() Point {
	return Point{int(math.Floor(v.X)), int(math.Floor(v.Y))}
}

// Add returns v+w.
func (v Vec) Add(w Vec) Vec { return Vec{v.X + w.X, v.Y + w.Y} }

func (v Vec) String() string { return fmt.Sprintf("(%g,%g)", v.X, v.Y) }

// Area is a rectangle of cells. X and Y address the top-left cell.
type Area struct {
	X, Y int
	W, H int
}

// AreaAt returns the cells covered by a w×h footprint centered at c.
// Centers that are not aligned to the footprint snap to the nearest aligned
// footprint, so a 3×3 footprint "at" cell (0,0) covers (-1,-1)..(1,1).
func AreaAt(c Vec, w, h int) Area {
	return Area{
		X: int(math.Floor(c.X - float64(w)/2 + 0.5)),
		Y: int(math.Floor(c.Y - float64(h)/2 + 0.5)),
		W: w,
		H: h,
	}
}

// Center returns the footprint center of the area.
func (a Area) Center() Vec {
	return Vec{float64(a.X) + float64(a.W)/2, float64(a.Y) + float64(a.H)/2}
}

// Min returns the top-left cell.
func (a Area) Min() Point { return Point{a.X, a.Y} }

// Max returns the bottom-right cell.
func (a Area) Max() Point { return Point{a.X + a.W - 1, a.Y + a.H - 1} }

// Empty reports whether the area covers no cells.
func (a Area) Empty() bool { return a.W <= 0 || a.H <= 0 }

// Contains reports whether p lies inside the area.
func (a Area) Contains(p Point) bool {
	return p.X >= a.X && p.X < a.X+a.W && p.Y >= a.Y && p.Y < a.Y+a.H
}

// ContainsArea reports whether b lies entirely inside a.
func (a Area) ContainsArea(b Area) bool {
	return !b.Empty() && a.Contains(b.Min()) && a.Contains(b.Max())
}

// Intersects reports whether the areas share at least one cell.
func (a Area) Intersects(b Area) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// Expand grows the area by r cells on every side.
func (a Area) Expand(r int) Area {
	return Area{a.X - r, a.Y - r, a.W + 2*r, a.H + 2*r}
}

// Union returns the smallest area covering both.
func (a Area) Union(b Area) Area {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	minX, minY := min(a.X, b.X), min(a.Y, b.Y)
	maxX, maxY := max(a.X+a.W, b.X+b.W), max(a.Y+a.H, b.Y+b.H)
	return Area{minX, minY, maxX - minX, maxY - minY}
}

// Cells returns every cell of the area in row-major order.
func (a Area) Cells() []Point {
	if a.Empty() {
		return nil
	}
	out := make([]Point, 0, a.W*a.H)
	for y := a.Y; y < a.Y+a.H; y++ {
		for x := a.X; x < a.X+a.W; x++ {
			out = append(out, Point{x, y})
		}
	}
	return out
}

// Border returns the cells just outside side d of the area, ordered along
// the side.
func (a Area) Border(d Direction) []Point {
	var out []Point
	switch d {
	case North:
		for x := a.X; x < a.X+a.W; x++ {
			out = append(out, Point{x, a.Y - 1})
		}
	case South:
		for x := a.X; x < a.X+a.W; x++ {
			out = append(out, Point{x, a.Y + a.H})
		}
	case West:
		for y := a.Y; y < a.Y+a.H; y++ {
			out = append(out, Point{a.X - 1, y})
		}
	case East:
		for y := a.Y; y < a.Y+a.H; y++ {
			out = append(out, Point{a.X + a.W, y})
		}
	}
	return out
}

// BoundsOf returns the smallest area covering all points.
func BoundsOf(points []Point) Area {
	if len(points) == 0 {
		return Area{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return Area{minX, minY, maxX - minX + 1, maxY - minY + 1}
}

func (a Area) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", a.X, a.Y, a.W, a.H)
}

// Direction is a cardinal heading in the eight-step encoding.
type Direction uint8

const (
	North Direction = 0
	East  Direction = 2
	South Direction = 4
	West  Direction = 6
)

// Directions lists the cardinal directions in clockwise order.
var Directions = [4]Direction{North, East, South, West}

// Rotate turns d by 90°, clockwise unless ccw is set.
func (d Direction) Rotate(ccw bool) Direction {
	if ccw {
		return (d + 6) % 8
	}
	return (d + 2) % 8
}

// Opposite returns the direction rotated by 180°.
func (d Direction) Opposite() Direction { return (d + 4) % 8 }

// Vertical reports whether d is North or South.
func (d Direction) Vertical() bool { return d%4 == 0 }

// Perpendicular reports whether d and e differ by 90°.
func (d Direction) Perpendicular(e Direction) bool { return (d+8-e)%4 == 2 }

// Index returns 0..3 for N, E, S, W.
func (d Direction) Index() int { return int(d/2) % 4 }

// Valid reports whether d is one of the four cardinal values.
func (d Direction) Valid() bool { return d < 8 && d%2 == 0 }

// Delta returns the unit step of d. Y grows southwards.
func (d Direction) Delta() Point {
	switch d {
	case North:
		return Point{0, -1}
	case East:
		return Point{1, 0}
	case South:
		return Point{0, 1}
	case West:
		return Point{-1, 0}
	}
	return Point{}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// ParseDirection parses "north", "n", "east", ... into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "north", "n", "N":
		return North, nil
	case "east", "e", "E":
		return East, nil
	case "south", "s", "S":
		return South, nil
	case "west", "w", "W":
		return West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// DirectionTo returns the cardinal direction of the unit step from p to q.
// ok is false when the points are not orthogonal neighbors.
func DirectionTo(p, q Point) (Direction, bool) {
	switch q.Sub(p) {
	case Point{0, -1}:
		return North, true
	case Point{1, 0}:
		return East, true
	case Point{0, 1}:
		return South, true
	case Point{-1, 0}:
		return West, true
	}
	return 0, false
}

// Dedup returns the distinct points sorted by [Point.Less].
func Dedup(points []Point) []Point {
	if len(points) == 0 {
		return nil
	}
	seen := make(map[Point]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	SortPoints(out)
	return out
}

// SortPoints sorts in place by [Point.Less].
func SortPoints(points []Point) {
	sort.Slice(points, func(i, j int) bool { return points[i].Less(points[j]) })
}
