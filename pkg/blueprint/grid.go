package blueprint

import (
	"sort"

	"github.com/benbjohnson/immutable"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// PositionGrid indexes entities by the cells they cover. It carries the
// entity table it indexes so predicates can inspect occupants.
//
// A cell holds no id, one id, or an ordered list of ids when entities are
// allowed to share it (gates over rails, rails crossing rails). Entities
// whose kind is placeable off grid are kept in the table but not indexed.
//
// PositionGrid is a persistent value: Add and Remove return a new grid and
// leave the receiver untouched. Predicates never mutate and never fail; an
// unknown kind is simply not placeable.
type PositionGrid struct {
	catalog  *catalog.Catalog
	cells    *immutable.Map[geom.Point, []EntityID]
	entities EntityTable
}

// NewPositionGrid returns an empty grid for kinds of cat.
func NewPositionGrid(cat *catalog.Catalog) PositionGrid {
	return PositionGrid{
		catalog:  cat,
		cells:    immutable.NewMap[geom.Point, []EntityID](pointHasher{}),
		entities: newEntityTable(),
	}
}

// BulkIndex adds every entity, keeping a list wherever entities collide.
func (g PositionGrid) BulkIndex(entities []Entity) PositionGrid {
	for _, e := range entities {
		g = g.Add(e)
	}
	return g
}

// Add records e and registers it in every covered cell.
func (g PositionGrid) Add(e Entity) PositionGrid {
	g.entities = g.entities.with(e)
	area, ok := g.indexedArea(e)
	if !ok {
		return g
	}
	for _, p := range area.Cells() {
		ids, _ := g.cells.Get(p)
		next := make([]EntityID, len(ids), len(ids)+1)
		copy(next, ids)
		g.cells = g.cells.Set(p, append(next, e.ID))
	}
	return g
}

// Remove drops the entity from the table and from every cell it covers.
// Cells holding a list collapse to the remaining occupants.
func (g PositionGrid) Remove(id EntityID) PositionGrid {
	e, ok := g.entities.Get(id)
	if !ok {
		return g
	}
	g.entities = g.entities.without(id)
	area, ok := g.indexedArea(e)
	if !ok {
		return g
	}
	for _, p := range area.Cells() {
		ids, _ := g.cells.Get(p)
		var next []EntityID
		for _, other := range ids {
			if other != id {
				next = append(next, other)
			}
		}
		if len(next) == 0 {
			g.cells = g.cells.Delete(p)
		} else {
			g.cells = g.cells.Set(p, next)
		}
	}
	return g
}

// replace swaps the stored entity without touching the index. The footprint
// of e must equal the footprint of the stored entity.
func (g PositionGrid) replace(e Entity) PositionGrid {
	g.entities = g.entities.with(e)
	return g
}

func (g PositionGrid) indexedArea(e Entity) (geom.Area, bool) {
	k, ok := g.catalog.Lookup(e.Kind)
	if !ok || k.PlaceableOffGrid {
		return geom.Area{}, false
	}
	return e.Area(k), true
}

// Catalog returns the catalog the grid resolves kinds with.
func (g PositionGrid) Catalog() *catalog.Catalog { return g.catalog }

// Entities returns the indexed entity table.
func (g PositionGrid) Entities() EntityTable { return g.entities }

// Entity returns the entity with the given id.
func (g PositionGrid) Entity(id EntityID) (Entity, bool) { return g.entities.Get(id) }

// EntitiesAt returns the ids registered in cell p, in insertion order.
func (g PositionGrid) EntitiesAt(p geom.Point) []EntityID {
	if g.cells == nil {
		return nil
	}
	ids, _ := g.cells.Get(p)
	return append([]EntityID(nil), ids...)
}

// Occupied reports whether any entity covers p.
func (g PositionGrid) Occupied(p geom.Point) bool {
	if g.cells == nil {
		return false
	}
	_, ok := g.cells.Get(p)
	return ok
}

// EntitiesIn returns the distinct ids covering any cell of area, ascending.
func (g PositionGrid) EntitiesIn(area geom.Area) []EntityID {
	return g.occupants(area, NoEntity)
}

func (g PositionGrid) occupants(area geom.Area, ignore EntityID) []EntityID {
	seen := make(map[EntityID]struct{})
	for _, p := range area.Cells() {
		for _, id := range g.EntitiesAt(p) {
			if id != ignore {
				seen[id] = struct{}{}
			}
		}
	}
	return sortedIDs(seen)
}

// CellEntry is one occupied cell of a grid dump.
type CellEntry struct {
	Cell geom.Point
	IDs  []EntityID
}

// Cells dumps every occupied cell ordered by row, then column. Two grids
// with equal dumps index the same entities in the same places.
func (g PositionGrid) Cells() []CellEntry {
	if g.cells == nil {
		return nil
	}
	out := make([]CellEntry, 0, g.cells.Len())
	itr := g.cells.Iterator()
	for !itr.Done() {
		p, ids, _ := itr.Next()
		out = append(out, CellEntry{Cell: p, IDs: append([]EntityID(nil), ids...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cell.Less(out[j].Cell) })
	return out
}

// IsAreaAvailable reports whether an entity of kind facing dir may be
// placed centered at pos. The entity ignore, if any, is treated as absent
// so moves and in-place rotations do not collide with themselves.
//
// Occupants block a placement, except for these crossings:
//   - a gate may sit on exactly one perpendicular straight rail
//   - a straight rail may cross exactly one perpendicular gate, or any
//     number of straight rails facing the same way, and ignores curved rails
//     in either direction; only the straight rails and gates it meets can
//     conflict with it
//   - a curved rail may cross straight rails, but never gates or curved rails
func (g PositionGrid) IsAreaAvailable(kind string, dir geom.Direction, pos geom.Vec, ignore EntityID) bool {
	k, ok := g.catalog.Lookup(kind)
	if !ok {
		return false
	}
	if k.PlaceableOffGrid {
		return true
	}
	ids := g.occupants(k.Area(pos, dir), ignore)
	if len(ids) == 0 {
		return true
	}

	var gates, straight, curved []Entity
	for _, id := range ids {
		e, ok := g.entities.Get(id)
		if !ok {
			return false
		}
		crossing, role := g.railRole(e)
		if !crossing {
			return false
		}
		switch role {
		case catalog.RoleGate:
			gates = append(gates, e)
		case catalog.RoleStraightRail:
			straight = append(straight, e)
		case catalog.RoleCurvedRail:
			curved = append(curved, e)
		}
	}

	switch {
	case k.Roles.Has(catalog.RoleGate):
		return len(gates) == 0 && len(curved) == 0 && len(straight) == 1 &&
			straight[0].Direction.Perpendicular(dir)
	case k.Roles.Has(catalog.RoleStraightRail):
		if len(gates) > 0 {
			return len(gates) == 1 && len(straight) == 0 && len(curved) == 0 &&
				gates[0].Direction.Perpendicular(dir)
		}
		for _, r := range straight {
			if r.Direction != dir {
				return false
			}
		}
		return true
	case k.Roles.Has(catalog.RoleCurvedRail):
		return len(gates) == 0 && len(curved) == 0
	}
	return false
}

// railRole classifies an occupant. crossing is false for occupants that
// always block.
func (g PositionGrid) railRole(e Entity) (crossing bool, role catalog.Role) {
	k, found := g.catalog.Lookup(e.Kind)
	if !found {
		return false, 0
	}
	for _, r := range []catalog.Role{catalog.RoleGate, catalog.RoleStraightRail, catalog.RoleCurvedRail} {
		if k.Roles.Has(r) {
			return true, r
		}
	}
	return false, 0
}

// single returns the only occupant of the footprint, if the footprint is
// covered by exactly one entity whose own footprint is identical.
func (g PositionGrid) single(k *catalog.Kind, dir geom.Direction, pos geom.Vec) (Entity, *catalog.Kind, bool) {
	area := k.Area(pos, dir)
	ids := g.occupants(area, NoEntity)
	if len(ids) != 1 {
		return Entity{}, nil, false
	}
	e, ok := g.entities.Get(ids[0])
	if !ok {
		return Entity{}, nil, false
	}
	ek, ok := g.catalog.Lookup(e.Kind)
	if !ok || e.Area(ek) != area {
		return Entity{}, nil, false
	}
	return e, ek, true
}

// FastReplaceable returns the entity a kind may replace in place: a single
// occupant with exactly the same footprint, of a different kind in the same
// non-empty fast-replaceable group.
func (g PositionGrid) FastReplaceable(kind string, dir geom.Direction, pos geom.Vec) (EntityID, bool) {
	k, ok := g.catalog.Lookup(kind)
	if !ok || k.FastReplaceableGroup == "" {
		return NoEntity, false
	}
	e, ek, ok := g.single(k, dir, pos)
	if !ok || e.Kind == kind || ek.FastReplaceableGroup != k.FastReplaceableGroup {
		return NoEntity, false
	}
	return e.ID, true
}

// SameKindDifferentDirection returns a single occupant of the same kind and
// footprint facing another way, which a placement would simply re-orient.
// Straight rails never qualify since crossing rails share cells.
func (g PositionGrid) SameKindDifferentDirection(kind string, dir geom.Direction, pos geom.Vec) (EntityID, bool) {
	k, ok := g.catalog.Lookup(kind)
	if !ok || k.Roles.Has(catalog.RoleStraightRail) {
		return NoEntity, false
	}
	e, _, ok := g.single(k, dir, pos)
	if !ok || e.Kind != kind || e.Direction == dir {
		return NoEntity, false
	}
	return e.ID, true
}

// PairStatus is the outcome of [PositionGrid.FindPaired].
type PairStatus uint8

const (
	PairNotFound PairStatus = iota
	PairFound
	PairBlocked
)

func (s PairStatus) String() string {
	switch s {
	case PairFound:
		return "found"
	case PairBlocked:
		return "blocked"
	}
	return "not found"
}

// PairResult is returned by [PositionGrid.FindPaired].
type PairResult struct {
	Status PairStatus
	ID     EntityID
}

// FindPaired looks for the partner of an underground entity: it walks up to
// maxDistance cells from the center cell of the footprint in searchDir and
// stops at the first entity of the same kind. The partner is Found unless
// it faces opposite to dir, in which case the pairing is Blocked.
func (g PositionGrid) FindPaired(kind string, dir geom.Direction, pos geom.Vec, searchDir geom.Direction, maxDistance int) PairResult {
	start := pos.Cell()
	p := start
	for i := 0; i < maxDistance; i++ {
		p = p.Step(searchDir)
		for _, id := range g.EntitiesAt(p) {
			e, ok := g.entities.Get(id)
			if !ok || e.Kind != kind {
				continue
			}
			if e.Direction == dir.Opposite() {
				return PairResult{Status: PairBlocked, ID: id}
			}
			return PairResult{Status: PairFound, ID: id}
		}
	}
	return PairResult{Status: PairNotFound}
}

// Neighbors returns the distinct ids touching each side of area, indexed by
// [geom.Direction.Index] (north, east, south, west), each sorted ascending.
func (g PositionGrid) Neighbors(area geom.Area) [4][]EntityID {
	var out [4][]EntityID
	for _, d := range geom.Directions {
		seen := make(map[EntityID]struct{})
		for _, p := range area.Border(d) {
			for _, id := range g.EntitiesAt(p) {
				seen[id] = struct{}{}
			}
		}
		out[d.Index()] = sortedIDs(seen)
	}
	return out
}

func sortedIDs(set map[EntityID]struct{}) []EntityID {
	if len(set) == 0 {
		return nil
	}
	out := make([]EntityID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
