package blueprint

import (
	"sort"

	"github.com/benbjohnson/immutable"

	"github.com/matzehuels/gridplan/pkg/geom"
)

type idComparer struct{}

func (idComparer) Compare(a, b EntityID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type pointHasher struct{}

func (pointHasher) Hash(p geom.Point) uint32   { return p.Hash() }
func (pointHasher) Equal(a, b geom.Point) bool { return a == b }

// EntityTable is a persistent map of entities ordered by id. Updates return
// a new table and leave the receiver untouched.
type EntityTable struct {
	m *immutable.SortedMap[EntityID, Entity]
}

func newEntityTable() EntityTable {
	return EntityTable{m: immutable.NewSortedMap[EntityID, Entity](idComparer{})}
}

// Get returns the entity with the given id. The returned entity owns its
// Connections, so writing to them leaves the table untouched.
func (t EntityTable) Get(id EntityID) (Entity, bool) {
	if t.m == nil {
		return Entity{}, false
	}
	e, ok := t.m.Get(id)
	e.Connections = e.Connections.clone()
	return e, ok
}

// Len returns the number of entities.
func (t EntityTable) Len() int {
	if t.m == nil {
		return 0
	}
	return t.m.Len()
}

// All returns the entities in ascending id order, each with its own copy
// of Connections.
func (t EntityTable) All() []Entity {
	if t.m == nil {
		return nil
	}
	out := make([]Entity, 0, t.m.Len())
	itr := t.m.Iterator()
	for !itr.Done() {
		_, e, _ := itr.Next()
		e.Connections = e.Connections.clone()
		out = append(out, e)
	}
	return out
}

// IDs returns the ids in ascending order.
func (t EntityTable) IDs() []EntityID {
	all := t.All()
	out := make([]EntityID, len(all))
	for i, e := range all {
		out[i] = e.ID
	}
	return out
}

func (t EntityTable) with(e Entity) EntityTable {
	if t.m == nil {
		t = newEntityTable()
	}
	return EntityTable{m: t.m.Set(e.ID, e)}
}

func (t EntityTable) without(id EntityID) EntityTable {
	if t.m == nil {
		return t
	}
	return EntityTable{m: t.m.Delete(id)}
}

// Tile is a floor tile. At most one tile exists per cell.
type Tile struct {
	Position geom.Point
	Kind     string
}

// TileTable is a persistent map of tiles keyed by cell.
type TileTable struct {
	m *immutable.Map[geom.Point, string]
}

func newTileTable() TileTable {
	return TileTable{m: immutable.NewMap[geom.Point, string](pointHasher{})}
}

// Get returns the tile kind at p.
func (t TileTable) Get(p geom.Point) (string, bool) {
	if t.m == nil {
		return "", false
	}
	return t.m.Get(p)
}

// Len returns the number of tiles.
func (t TileTable) Len() int {
	if t.m == nil {
		return 0
	}
	return t.m.Len()
}

// All returns the tiles ordered by row, then column.
func (t TileTable) All() []Tile {
	if t.m == nil {
		return nil
	}
	out := make([]Tile, 0, t.m.Len())
	itr := t.m.Iterator()
	for !itr.Done() {
		p, kind, _ := itr.Next()
		out = append(out, Tile{Position: p, Kind: kind})
	}
	sortTiles(out)
	return out
}

func (t TileTable) with(tile Tile) TileTable {
	if t.m == nil {
		t = newTileTable()
	}
	return TileTable{m: t.m.Set(tile.Position, tile.Kind)}
}

func (t TileTable) without(p geom.Point) TileTable {
	if t.m == nil {
		return t
	}
	return TileTable{m: t.m.Delete(p)}
}

func sortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Position.Less(tiles[j].Position) })
}
