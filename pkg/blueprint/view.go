package blueprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// View is an immutable snapshot of a blueprint. It is safe for concurrent
// use and stays valid while the blueprint keeps changing.
type View struct {
	catalog *catalog.Catalog
	state   State
}

// Catalog returns the catalog of the snapshot.
func (v *View) Catalog() *catalog.Catalog { return v.catalog }

// Grid returns the position grid.
func (v *View) Grid() PositionGrid { return v.state.grid }

// Connections returns the wire graph.
func (v *View) Connections() ConnectionGraph { return v.state.conns }

// Entity returns the entity with the given id.
func (v *View) Entity(id EntityID) (Entity, bool) { return v.state.grid.Entity(id) }

// Entities returns every entity in ascending id order.
func (v *View) Entities() []Entity { return v.state.grid.entities.All() }

// Len returns the number of entities.
func (v *View) Len() int { return v.state.grid.entities.Len() }

// Tiles returns every tile ordered by row, then column.
func (v *View) Tiles() []Tile { return v.state.tiles.All() }

// EntitiesWithRole returns the entities whose kind carries role, in
// ascending id order.
func (v *View) EntitiesWithRole(role catalog.Role) []Entity {
	var out []Entity
	for _, e := range v.Entities() {
		if k, ok := v.catalog.Lookup(e.Kind); ok && k.Roles.Has(role) {
			out = append(out, e)
		}
	}
	return out
}

// Area returns the cells e covers.
func (v *View) Area(e Entity) geom.Area {
	k, ok := v.catalog.Lookup(e.Kind)
	if !ok {
		return geom.Area{}
	}
	return e.Area(k)
}

// Free reports whether no entity covers p.
func (v *View) Free(p geom.Point) bool { return !v.state.grid.Occupied(p) }

// Bounds returns the area covered by entities and tiles.
func (v *View) Bounds() geom.Area {
	var b geom.Area
	for _, e := range v.Entities() {
		b = b.Union(v.Area(e))
	}
	for _, t := range v.Tiles() {
		b = b.Union(geom.Area{X: t.Position.X, Y: t.Position.Y, W: 1, H: 1})
	}
	return b
}

// CountByKind returns the number of entities per kind.
func (v *View) CountByKind() map[string]int {
	out := make(map[string]int)
	for _, e := range v.Entities() {
		out[e.Kind]++
	}
	return out
}

// Hash returns a content hash of the entities, tiles and wires. Equal
// layouts hash equally regardless of their edit history.
func (v *View) Hash() string {
	data, err := json.Marshal(v.ToRaw())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(append(data, v.catalog.Digest()...))
	return hex.EncodeToString(sum[:])
}

// Validate cross-checks the snapshot: every entity is indexed in exactly the
// cells it covers, every indexed id exists, every wire joins existing
// entities and the inline data of every entity matches the wire graph.
func (v *View) Validate() error {
	g := v.state.grid
	expected := make(map[geom.Point][]EntityID)
	for _, e := range v.Entities() {
		k, ok := v.catalog.Lookup(e.Kind)
		if !ok {
			return inconsistency("entity %d has unknown kind %q", e.ID, e.Kind)
		}
		if e.ID >= v.state.nextID {
			return inconsistency("entity %d is not below next id %d", e.ID, v.state.nextID)
		}
		if k.PlaceableOffGrid {
			continue
		}
		for _, p := range e.Area(k).Cells() {
			expected[p] = append(expected[p], e.ID)
		}
	}

	cells := g.Cells()
	if len(cells) != len(expected) {
		return inconsistency("grid indexes %d cells, entities cover %d", len(cells), len(expected))
	}
	for _, c := range cells {
		want := uniqueIDs(expected[c.Cell]...)
		got := uniqueIDs(c.IDs...)
		if len(got) != len(c.IDs) {
			return inconsistency("cell %v lists an id twice: %v", c.Cell, c.IDs)
		}
		if !reflect.DeepEqual(got, want) {
			return inconsistency("cell %v holds %v, entities cover it with %v", c.Cell, got, want)
		}
	}

	for _, c := range v.state.conns.All() {
		if _, ok := v.Entity(c.A); !ok {
			return inconsistency("wire references missing entity %d", c.A)
		}
		if _, ok := v.Entity(c.B); !ok {
			return inconsistency("wire references missing entity %d", c.B)
		}
	}
	for _, e := range v.Entities() {
		got := e.Connections.records()
		want := v.state.conns.inline(e.ID).records()
		if len(got) == 0 && len(want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return inconsistency("entity %d inline wires %v, graph has %v", e.ID, got, want)
		}
	}
	return nil
}

func inconsistency(format string, args ...any) error {
	return errors.New(errors.ErrCodeInternal, "inconsistent blueprint: %s", fmt.Sprintf(format, args...))
}
