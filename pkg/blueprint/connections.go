package blueprint

import (
	"sort"

	"github.com/benbjohnson/immutable"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Connection is one wire between two entity sides. Stored connections are
// normalized so that A <= B.
type Connection struct {
	A, B         EntityID
	Color        Color
	SideA, SideB Side
}

func (c Connection) normalize() Connection {
	if c.A > c.B || (c.A == c.B && c.SideA > c.SideB) {
		c.A, c.B = c.B, c.A
		c.SideA, c.SideB = c.SideB, c.SideA
	}
	return c
}

// Touches reports whether id is an endpoint.
func (c Connection) Touches(id EntityID) bool { return c.A == id || c.B == id }

func (c Connection) less(o Connection) bool {
	switch {
	case c.A != o.A:
		return c.A < o.A
	case c.B != o.B:
		return c.B < o.B
	case c.Color != o.Color:
		return c.Color < o.Color
	case c.SideA != o.SideA:
		return c.SideA < o.SideA
	}
	return c.SideB < o.SideB
}

type pairKey struct {
	A, B EntityID
}

type pairHasher struct{}

func (pairHasher) Hash(k pairKey) uint32 {
	h := uint64(k.A)*0x9e3779b97f4a7c15 ^ uint64(k.B)
	h ^= h >> 29
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 32
	return uint32(h)
}

func (pairHasher) Equal(a, b pairKey) bool { return a == b }

// RewireInstruction tells the caller which inline record of a neighbor must
// be pruned after an entity was removed from the graph: the point at Index
// of Entity.Connections[Side][Color] refers to (Other, OtherSide).
type RewireInstruction struct {
	Entity    EntityID
	Side      Side
	Color     Color
	Index     int
	Other     EntityID
	OtherSide Side
}

// ConnectionGraph is the deduplicated wire list derived from the inline
// connection data of entities. Each unordered entity pair is stored once and
// holds every wire between the two.
//
// ConnectionGraph is a persistent value; the zero value is an empty graph.
type ConnectionGraph struct {
	pairs *immutable.Map[pairKey, []Connection]
	adj   *immutable.SortedMap[EntityID, []EntityID]
	n     int
}

// NewConnectionGraph returns an empty graph.
func NewConnectionGraph() ConnectionGraph {
	return ConnectionGraph{
		pairs: immutable.NewMap[pairKey, []Connection](pairHasher{}),
		adj:   immutable.NewSortedMap[EntityID, []EntityID](idComparer{}),
	}
}

func (g ConnectionGraph) ensure() ConnectionGraph {
	if g.pairs == nil {
		return NewConnectionGraph()
	}
	return g
}

// RebuildFrom derives the graph from the inline data of entities. A wire
// listed by both of its ends is stored once. Points referring to entities
// outside the list are ignored.
func RebuildFrom(entities []Entity) ConnectionGraph {
	known := make(map[EntityID]struct{}, len(entities))
	for _, e := range entities {
		known[e.ID] = struct{}{}
	}
	g := NewConnectionGraph()
	for _, e := range entities {
		for _, r := range e.Connections.records() {
			if _, ok := known[r.Point.Entity]; !ok {
				continue
			}
			g, _ = g.Add(Connection{
				A: e.ID, B: r.Point.Entity, Color: r.Color,
				SideA: r.Side, SideB: r.Point.Side,
			})
		}
	}
	return g
}

// Len returns the number of wires.
func (g ConnectionGraph) Len() int { return g.n }

// Has reports whether the wire exists.
func (g ConnectionGraph) Has(c Connection) bool {
	if g.pairs == nil {
		return false
	}
	c = c.normalize()
	list, _ := g.pairs.Get(pairKey{c.A, c.B})
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// Add stores the wire. added is false when it already exists.
func (g ConnectionGraph) Add(c Connection) (next ConnectionGraph, added bool) {
	g = g.ensure()
	if g.Has(c) {
		return g, false
	}
	c = c.normalize()
	key := pairKey{c.A, c.B}
	list, existed := g.pairs.Get(key)
	list = append(append([]Connection(nil), list...), c)
	sort.Slice(list, func(i, j int) bool { return list[i].less(list[j]) })
	g.pairs = g.pairs.Set(key, list)
	if !existed {
		g.adj = linkIDs(g.adj, c.A, c.B)
		if c.A != c.B {
			g.adj = linkIDs(g.adj, c.B, c.A)
		}
	}
	g.n++
	return g, true
}

// Remove deletes the wire. removed is false when it did not exist.
func (g ConnectionGraph) Remove(c Connection) (next ConnectionGraph, removed bool) {
	if !g.Has(c) {
		return g, false
	}
	c = c.normalize()
	key := pairKey{c.A, c.B}
	list, _ := g.pairs.Get(key)
	var rest []Connection
	for _, x := range list {
		if x != c {
			rest = append(rest, x)
		}
	}
	if len(rest) == 0 {
		g.pairs = g.pairs.Delete(key)
		g.adj = unlinkIDs(g.adj, c.A, c.B)
		if c.A != c.B {
			g.adj = unlinkIDs(g.adj, c.B, c.A)
		}
	} else {
		g.pairs = g.pairs.Set(key, rest)
	}
	g.n--
	return g, true
}

// RemoveEntity deletes every wire touching id. For each wire to another
// entity it returns the instruction the caller needs to prune that
// neighbor's inline data; lookup resolves neighbors so instructions can
// carry the index of the stale point. Instructions are ordered by entity,
// side and color, with indices descending so they can be applied in order.
func (g ConnectionGraph) RemoveEntity(id EntityID, lookup func(EntityID) (Entity, bool)) (ConnectionGraph, []RewireInstruction) {
	var out []RewireInstruction
	for _, c := range g.Connections(id) {
		g, _ = g.Remove(c)
		other, otherSide, mySide := c.B, c.SideB, c.SideA
		if c.B == id {
			other, otherSide, mySide = c.A, c.SideA, c.SideB
		}
		if other == id {
			continue
		}
		ins := RewireInstruction{
			Entity: other, Side: otherSide, Color: c.Color,
			Index: -1, Other: id, OtherSide: mySide,
		}
		if e, ok := lookup(other); ok {
			for i, p := range e.Connections[otherSide][c.Color] {
				if p == (ConnectionPoint{Entity: id, Side: mySide}) {
					ins.Index = i
					break
				}
			}
		}
		out = append(out, ins)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Entity != b.Entity:
			return a.Entity < b.Entity
		case a.Side != b.Side:
			return a.Side < b.Side
		case a.Color != b.Color:
			return a.Color < b.Color
		}
		return a.Index > b.Index
	})
	return g, out
}

// Neighbors returns the ids wired to id, ascending.
func (g ConnectionGraph) Neighbors(id EntityID) []EntityID {
	if g.adj == nil {
		return nil
	}
	ids, _ := g.adj.Get(id)
	return append([]EntityID(nil), ids...)
}

// Connections returns every wire touching id, sorted.
func (g ConnectionGraph) Connections(id EntityID) []Connection {
	var out []Connection
	for _, other := range g.Neighbors(id) {
		a, b := id, other
		if a > b {
			a, b = b, a
		}
		list, _ := g.pairs.Get(pairKey{a, b})
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// All returns every wire, sorted.
func (g ConnectionGraph) All() []Connection {
	if g.pairs == nil {
		return nil
	}
	out := make([]Connection, 0, g.n)
	itr := g.pairs.Iterator()
	for !itr.Done() {
		_, list, _ := itr.Next()
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// Networks returns the connected components formed by wires of one color.
// Each component is sorted ascending and components are ordered by their
// smallest id.
func (g ConnectionGraph) Networks(color Color) [][]EntityID {
	ug := simple.NewUndirectedGraph()
	for _, c := range g.All() {
		if c.Color != color {
			continue
		}
		if c.A == c.B {
			if ug.Node(int64(c.A)) == nil {
				ug.AddNode(simple.Node(int64(c.A)))
			}
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(int64(c.A)), simple.Node(int64(c.B))))
	}

	var out [][]EntityID
	for _, comp := range topo.ConnectedComponents(ug) {
		ids := make([]EntityID, len(comp))
		for i, n := range comp {
			ids[i] = EntityID(n.ID())
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// inline derives the inline data id should carry from the graph.
func (g ConnectionGraph) inline(id EntityID) Connections {
	var out Connections
	for _, c := range g.Connections(id) {
		if c.A == id {
			out = out.add(c.SideA, c.Color, ConnectionPoint{Entity: c.B, Side: c.SideB})
		}
		if c.B == id {
			out = out.add(c.SideB, c.Color, ConnectionPoint{Entity: c.A, Side: c.SideA})
		}
	}
	return out
}

func linkIDs(adj *immutable.SortedMap[EntityID, []EntityID], from, to EntityID) *immutable.SortedMap[EntityID, []EntityID] {
	ids, _ := adj.Get(from)
	next := make([]EntityID, 0, len(ids)+1)
	next = append(next, ids...)
	next = append(next, to)
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return adj.Set(from, next)
}

func unlinkIDs(adj *immutable.SortedMap[EntityID, []EntityID], from, to EntityID) *immutable.SortedMap[EntityID, []EntityID] {
	ids, _ := adj.Get(from)
	var next []EntityID
	for _, id := range ids {
		if id != to {
			next = append(next, id)
		}
	}
	if len(next) == 0 {
		return adj.Delete(from)
	}
	return adj.Set(from, next)
}
