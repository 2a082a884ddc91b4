package blueprint

import (
	"fmt"
	"sort"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// EntityID identifies an entity within one blueprint. IDs start at 1 and
// are never reused by a blueprint instance.
type EntityID uint64

// NoEntity is the zero EntityID, used where an id is optional.
const NoEntity EntityID = 0

// DirectionType distinguishes the two halves of an underground pair.
type DirectionType uint8

const (
	DirectionNone DirectionType = iota
	DirectionInput
	DirectionOutput
)

func (t DirectionType) String() string {
	switch t {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	}
	return ""
}

// ParseDirectionType parses "input", "output" or "".
func ParseDirectionType(s string) (DirectionType, error) {
	switch s {
	case "":
		return DirectionNone, nil
	case "input":
		return DirectionInput, nil
	case "output":
		return DirectionOutput, nil
	}
	return DirectionNone, fmt.Errorf("unknown direction type %q", s)
}

// Side is a connection terminal of an entity. Most entities have side 1
// only; combinators have an input side 1 and an output side 2.
type Side uint8

// Color is a wire color.
type Color string

const (
	Red    Color = "red"
	Green  Color = "green"
	Copper Color = "copper"
)

// Valid reports whether c is a known wire color.
func (c Color) Valid() bool {
	return c == Red || c == Green || c == Copper
}

// ConnectionPoint is the far end of a wire as stored on an entity.
type ConnectionPoint struct {
	Entity EntityID
	Side   Side
}

// Connections is the inline wire data of an entity, keyed by its own side
// and the wire color.
type Connections map[Side]map[Color][]ConnectionPoint

func (c Connections) clone() Connections {
	if len(c) == 0 {
		return nil
	}
	out := make(Connections, len(c))
	for side, byColor := range c {
		m := make(map[Color][]ConnectionPoint, len(byColor))
		for color, pts := range byColor {
			m[color] = append([]ConnectionPoint(nil), pts...)
		}
		out[side] = m
	}
	return out
}

func (c Connections) add(side Side, color Color, p ConnectionPoint) Connections {
	out := c.clone()
	if out == nil {
		out = make(Connections)
	}
	if out[side] == nil {
		out[side] = make(map[Color][]ConnectionPoint)
	}
	out[side][color] = append(out[side][color], p)
	return out
}

// remove drops the point at index, or the first matching point when index
// does not hold it. Empty lists and maps are pruned.
func (c Connections) remove(side Side, color Color, index int, p ConnectionPoint) Connections {
	out := c.clone()
	pts := out[side][color]
	if index < 0 || index >= len(pts) || pts[index] != p {
		index = -1
		for i, q := range pts {
			if q == p {
				index = i
				break
			}
		}
	}
	if index < 0 {
		return out
	}
	pts = append(pts[:index], pts[index+1:]...)
	if len(pts) == 0 {
		delete(out[side], color)
		if len(out[side]) == 0 {
			delete(out, side)
		}
	} else {
		out[side][color] = pts
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Len counts the stored points.
func (c Connections) Len() int {
	n := 0
	for _, byColor := range c {
		for _, pts := range byColor {
			n += len(pts)
		}
	}
	return n
}

// inlineRecord is one stored point flattened with its side and color.
type inlineRecord struct {
	Side  Side
	Color Color
	Point ConnectionPoint
}

func (c Connections) records() []inlineRecord {
	var out []inlineRecord
	for side, byColor := range c {
		for color, pts := range byColor {
			for _, p := range pts {
				out = append(out, inlineRecord{side, color, p})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		if a.Color != b.Color {
			return a.Color < b.Color
		}
		if a.Point.Entity != b.Point.Entity {
			return a.Point.Entity < b.Point.Entity
		}
		return a.Point.Side < b.Point.Side
	})
	return out
}

// Entity is a placed object. Entities are values: every mutation stores a
// new Entity and never modifies one that may be shared with a snapshot.
type Entity struct {
	ID            EntityID
	Kind          string
	Position      geom.Vec
	Direction     geom.Direction
	DirectionType DirectionType
	Recipe        string
	Connections   Connections
}

// Area returns the cells the entity covers given its kind.
func (e Entity) Area(k *catalog.Kind) geom.Area {
	return k.Area(e.Position, e.Direction)
}

func (e Entity) String() string {
	return fmt.Sprintf("%s#%d@%v/%v", e.Kind, e.ID, e.Position, e.Direction)
}

// EntityOption configures an entity created by [Blueprint.CreateEntity].
type EntityOption func(*Entity)

// WithRecipe sets the recipe of a new entity.
func WithRecipe(recipe string) EntityOption {
	return func(e *Entity) { e.Recipe = recipe }
}

// WithDirectionType sets the underground half of a new entity.
func WithDirectionType(t DirectionType) EntityOption {
	return func(e *Entity) { e.DirectionType = t }
}
