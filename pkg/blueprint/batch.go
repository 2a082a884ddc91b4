package blueprint

import (
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// Placement requests a new entity.
type Placement struct {
	Kind          string
	Position      geom.Vec
	Direction     geom.Direction
	DirectionType DirectionType
	Recipe        string
}

// Turn requests that an existing entity face a given direction in place.
type Turn struct {
	ID        EntityID
	Direction geom.Direction
}

// Ref names a wire endpoint: an existing entity, or the entity created by
// the Placement at index Placed of the same batch.
type Ref struct {
	ID     EntityID
	Placed int
}

// Existing refers to an entity that is already in the blueprint.
func Existing(id EntityID) Ref { return Ref{ID: id} }

// Placed refers to the entity created by Batch.Place[i].
func Placed(i int) Ref { return Ref{Placed: i} }

// Wire requests a wire between two endpoints.
type Wire struct {
	From, To         Ref
	Color            Color
	FromSide, ToSide Side
}

// Batch is a set of edits applied as one history entry: removals first,
// then turns, placements and wires.
type Batch struct {
	Remove []EntityID
	Turn   []Turn
	Place  []Placement
	Wire   []Wire
}

// Empty reports whether the batch contains no edits.
func (b Batch) Empty() bool {
	return len(b.Remove) == 0 && len(b.Turn) == 0 && len(b.Place) == 0 && len(b.Wire) == 0
}

// Apply performs every edit of the batch atomically. On success it records
// a single history entry and returns the ids of the placed entities in
// request order. On failure nothing changes and the error of the first
// failing edit is returned.
func (bp *Blueprint) Apply(b Batch) ([]EntityID, error) {
	if b.Empty() {
		return nil, nil
	}
	s := bp.state
	touched := make(map[EntityID]struct{})
	var err error

	for _, id := range b.Remove {
		var neighbors []EntityID
		if s, neighbors, err = bp.remove(s, id); err != nil {
			return nil, err
		}
		touched[id] = struct{}{}
		for _, n := range neighbors {
			touched[n] = struct{}{}
		}
	}
	for _, t := range b.Turn {
		if s, err = bp.turn(s, t.ID, t.Direction, true); err != nil {
			return nil, err
		}
		touched[t.ID] = struct{}{}
	}

	placed := make([]EntityID, len(b.Place))
	for i, p := range b.Place {
		var id EntityID
		e := Entity{
			Kind: p.Kind, Position: p.Position, Direction: p.Direction,
			DirectionType: p.DirectionType, Recipe: p.Recipe,
		}
		if s, id, err = bp.place(s, e); err != nil {
			return nil, err
		}
		placed[i] = id
		touched[id] = struct{}{}
	}

	resolve := func(r Ref) (EntityID, error) {
		if r.ID != NoEntity {
			return r.ID, nil
		}
		if r.Placed < 0 || r.Placed >= len(placed) {
			return NoEntity, errors.New(errors.ErrCodeInvalidInput, "wire refers to placement %d of %d", r.Placed, len(placed))
		}
		return placed[r.Placed], nil
	}
	for _, w := range b.Wire {
		from, err := resolve(w.From)
		if err != nil {
			return nil, err
		}
		to, err := resolve(w.To)
		if err != nil {
			return nil, err
		}
		c := Connection{A: from, B: to, Color: w.Color, SideA: w.FromSide, SideB: w.ToSide}
		if c.SideA == 0 {
			c.SideA = 1
		}
		if c.SideB == 0 {
			c.SideB = 1
		}
		if s, err = bp.connect(s, c); err != nil {
			return nil, err
		}
		touched[from] = struct{}{}
		touched[to] = struct{}{}
	}

	kind, primary := EntryUpdate, NoEntity
	switch {
	case len(placed) > 0:
		kind, primary = EntryAdd, placed[0]
	case len(b.Remove) > 0 && len(b.Turn) == 0 && len(b.Wire) == 0:
		kind, primary = EntryDel, b.Remove[0]
	case len(b.Turn) > 0:
		primary = b.Turn[0].ID
	}
	bp.commit(s, kind, primary, NoEntity, sortedIDs(touched))
	bp.logger.Debug("batch applied", "removed", len(b.Remove), "turned", len(b.Turn), "placed", len(placed), "wired", len(b.Wire))
	return placed, nil
}
