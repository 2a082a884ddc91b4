package blueprint

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// Blueprint is the aggregate of a layout: entities, their grid index, tiles,
// wires and the edit history. Every successful mutation appends exactly one
// history entry; a failed mutation leaves the blueprint unchanged.
//
// A Blueprint has a single writer. Use [Blueprint.View] to hand an immutable
// snapshot to other goroutines.
type Blueprint struct {
	catalog    *catalog.Catalog
	state      State
	history    *EditHistory
	logger     *log.Logger
	assertions bool
	maxHistory int
}

// Option configures a Blueprint.
type Option func(*Blueprint)

// WithLogger sets the logger mutations report to. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(bp *Blueprint) {
		if l != nil {
			bp.logger = l
		}
	}
}

// WithAssertions makes every mutation run [Blueprint.Validate] and panic on
// an internal inconsistency.
func WithAssertions(on bool) Option {
	return func(bp *Blueprint) { bp.assertions = on }
}

// WithMaxHistory bounds the number of undoable entries. Zero means
// unbounded.
func WithMaxHistory(n int) Option {
	return func(bp *Blueprint) { bp.maxHistory = n }
}

// New returns an empty blueprint over cat.
func New(cat *catalog.Catalog, opts ...Option) *Blueprint {
	return newBlueprint(cat, State{
		grid:   NewPositionGrid(cat),
		tiles:  newTileTable(),
		conns:  NewConnectionGraph(),
		nextID: 1,
	}, opts)
}

func newBlueprint(cat *catalog.Catalog, s State, opts []Option) *Blueprint {
	bp := &Blueprint{
		catalog: cat,
		state:   s,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(bp)
	}
	bp.history = NewEditHistory(s, bp.maxHistory)
	return bp
}

// Catalog returns the catalog the blueprint resolves kinds with.
func (bp *Blueprint) Catalog() *catalog.Catalog { return bp.catalog }

// History returns the edit log.
func (bp *Blueprint) History() *EditHistory { return bp.history }

// View returns an immutable snapshot of the current state.
func (bp *Blueprint) View() *View {
	return &View{catalog: bp.catalog, state: bp.state}
}

// Entity returns the entity with the given id.
func (bp *Blueprint) Entity(id EntityID) (Entity, bool) { return bp.state.grid.Entity(id) }

// Entities returns every entity in ascending id order.
func (bp *Blueprint) Entities() []Entity { return bp.state.grid.entities.All() }

// Tiles returns every tile ordered by row, then column.
func (bp *Blueprint) Tiles() []Tile { return bp.state.tiles.All() }

// Grid returns the current position grid.
func (bp *Blueprint) Grid() PositionGrid { return bp.state.grid }

// Connections returns the current wire graph.
func (bp *Blueprint) Connections() ConnectionGraph { return bp.state.conns }

// Bounds returns the area covered by entities and tiles.
func (bp *Blueprint) Bounds() geom.Area { return bp.View().Bounds() }

// Validate cross-checks the grid, the entity table and the wires.
func (bp *Blueprint) Validate() error { return bp.View().Validate() }

// commit installs s as the current state and records it.
func (bp *Blueprint) commit(s State, kind EntryKind, primary, linked EntityID, affected []EntityID) {
	bp.state = s
	bp.history.Push(HistoryEntry{
		Kind:     kind,
		Primary:  primary,
		Linked:   linked,
		Affected: affected,
		State:    s,
	})
	bp.logger.Debug("edit", "kind", kind, "primary", primary, "affected", len(affected))
	bp.assert()
}

func (bp *Blueprint) assert() {
	if !bp.assertions {
		return
	}
	if err := bp.Validate(); err != nil {
		panic("blueprint: " + err.Error())
	}
}

// Undo reverts the newest applied entry and returns the ids it touched.
// ok is false when there is nothing to undo.
func (bp *Blueprint) Undo() (affected []EntityID, ok bool) {
	undone, s, ok := bp.history.Undo()
	if !ok {
		return nil, false
	}
	bp.state = s
	bp.logger.Debug("undo", "kind", undone.Kind, "primary", undone.Primary)
	bp.assert()
	return undone.Affected, true
}

// Redo reapplies the next undone entry and returns the ids it touched.
// ok is false when there is nothing to redo.
func (bp *Blueprint) Redo() (affected []EntityID, ok bool) {
	redone, s, ok := bp.history.Redo()
	if !ok {
		return nil, false
	}
	bp.state = s
	bp.logger.Debug("redo", "kind", redone.Kind, "primary", redone.Primary)
	bp.assert()
	return redone.Affected, true
}

// CreateEntity places a new entity of kind centered at pos facing dir. The
// position snaps to the footprint grid. It fails with PLACEMENT_BLOCKED when
// the overlap rules reject the placement and UNKNOWN_KIND for kinds missing
// from the catalog.
func (bp *Blueprint) CreateEntity(kind string, pos geom.Vec, dir geom.Direction, opts ...EntityOption) (EntityID, error) {
	e := Entity{Kind: kind, Position: pos, Direction: dir}
	for _, opt := range opts {
		opt(&e)
	}
	s, id, err := bp.place(bp.state, e)
	if err != nil {
		return NoEntity, err
	}
	bp.commit(s, EntryAdd, id, NoEntity, []EntityID{id})
	return id, nil
}

func (bp *Blueprint) place(s State, e Entity) (State, EntityID, error) {
	k, err := bp.catalog.Kind(e.Kind)
	if err != nil {
		return s, NoEntity, err
	}
	if !k.CanRotate() {
		e.Direction = geom.North
	} else if !k.Allows(e.Direction) {
		return s, NoEntity, errors.New(errors.ErrCodeInvalidInput, "%s cannot face %v", e.Kind, e.Direction)
	}
	if e.Recipe != "" {
		if _, ok := bp.catalog.Recipe(e.Recipe); !ok {
			return s, NoEntity, errors.New(errors.ErrCodeInvalidInput, "unknown recipe %q", e.Recipe)
		}
	}
	e.Position = k.Area(e.Position, e.Direction).Center()
	if !s.grid.IsAreaAvailable(e.Kind, e.Direction, e.Position, NoEntity) {
		return s, NoEntity, errors.New(errors.ErrCodePlacementBlocked, "%s blocked at %v", e.Kind, e.Position)
	}
	e.ID = s.nextID
	e.Connections = nil
	s.nextID++
	s.grid = s.grid.Add(e)
	return s, e.ID, nil
}

func (bp *Blueprint) lookup(s State, id EntityID) (Entity, *catalog.Kind, error) {
	e, ok := s.grid.Entity(id)
	if !ok {
		return Entity{}, nil, errors.New(errors.ErrCodeUnknownEntity, "unknown entity %d", id)
	}
	k, err := bp.catalog.Kind(e.Kind)
	if err != nil {
		return Entity{}, nil, err
	}
	return e, k, nil
}

// MoveEntity moves an entity so it is centered at pos, re-validating the
// overlap rules while ignoring its own footprint.
func (bp *Blueprint) MoveEntity(id EntityID, pos geom.Vec) error {
	s, err := bp.move(bp.state, id, pos)
	if err != nil {
		return err
	}
	bp.commit(s, EntryMove, id, NoEntity, []EntityID{id})
	return nil
}

func (bp *Blueprint) move(s State, id EntityID, pos geom.Vec) (State, error) {
	e, k, err := bp.lookup(s, id)
	if err != nil {
		return s, err
	}
	pos = k.Area(pos, e.Direction).Center()
	if !s.grid.IsAreaAvailable(e.Kind, e.Direction, pos, id) {
		return s, errors.New(errors.ErrCodePlacementBlocked, "%s blocked at %v", e.Kind, pos)
	}
	e.Position = pos
	s.grid = s.grid.Remove(id).Add(e)
	return s, nil
}

// RotateEntity turns an entity to the next direction of its rotation set,
// counter-clockwise when ccw is set.
//
// In place, the rotated footprint must pass the overlap rules, and
// footprints whose sides differ by an odd amount shift by half a cell on
// both axes (+0.5 when the new direction is east or west, -0.5 otherwise)
// so they stay aligned to the grid. While the entity is being dragged
// (inPlace unset) neither the check nor the shift applies.
//
// Kinds without a rotation set or with a single rotation, and
// fluid-capable assemblers without a fluid recipe, fail with
// ROTATION_REJECTED.
func (bp *Blueprint) RotateEntity(id EntityID, ccw, inPlace bool) error {
	e, k, err := bp.lookup(bp.state, id)
	if err != nil {
		return err
	}
	next, ok := k.NextDirection(e.Direction, ccw)
	if !ok {
		return errors.New(errors.ErrCodeRotationRejected, "%s cannot be rotated", e.Kind)
	}
	if next == e.Direction {
		return errors.New(errors.ErrCodeRotationRejected, "%s has a single rotation", e.Kind)
	}
	s, err := bp.turn(bp.state, id, next, inPlace)
	if err != nil {
		return err
	}
	bp.commit(s, EntryUpdate, id, NoEntity, []EntityID{id})
	return nil
}

func (bp *Blueprint) turn(s State, id EntityID, dir geom.Direction, inPlace bool) (State, error) {
	e, k, err := bp.lookup(s, id)
	if err != nil {
		return s, err
	}
	if !k.CanRotate() || !k.Allows(dir) {
		return s, errors.New(errors.ErrCodeRotationRejected, "%s cannot face %v", e.Kind, dir)
	}
	if dir == e.Direction {
		return s, nil
	}
	if k.CraftsWithFluid {
		r, ok := bp.catalog.Recipe(e.Recipe)
		if !ok || !r.Fluid {
			return s, errors.New(errors.ErrCodeRotationRejected, "%s without a fluid recipe has no orientation", e.Kind)
		}
	}

	pos := e.Position
	if inPlace {
		if e.Direction.Vertical() != dir.Vertical() && abs(k.Width-k.Height)%2 == 1 {
			shift := -0.5
			if dir == geom.East || dir == geom.West {
				shift = 0.5
			}
			pos = geom.Vec{X: pos.X + shift, Y: pos.Y + shift}
		}
		pos = k.Area(pos, dir).Center()
		if !s.grid.IsAreaAvailable(e.Kind, dir, pos, id) {
			return s, errors.New(errors.ErrCodeRotationRejected, "%s rotated to %v would overlap", e.Kind, dir)
		}
	}
	e.Direction = dir
	e.Position = pos
	s.grid = s.grid.Remove(id).Add(e)
	return s, nil
}

// RemoveEntity deletes an entity together with its wires. It returns the
// neighbors whose inline connection data changed.
func (bp *Blueprint) RemoveEntity(id EntityID) ([]EntityID, error) {
	s, neighbors, err := bp.remove(bp.state, id)
	if err != nil {
		return nil, err
	}
	bp.commit(s, EntryDel, id, NoEntity, append([]EntityID{id}, neighbors...))
	return neighbors, nil
}

func (bp *Blueprint) remove(s State, id EntityID) (State, []EntityID, error) {
	if _, ok := s.grid.Entity(id); !ok {
		return s, nil, errors.New(errors.ErrCodeUnknownEntity, "unknown entity %d", id)
	}
	conns, rewire := s.conns.RemoveEntity(id, s.grid.Entity)
	s.conns = conns

	changed := make(map[EntityID]struct{})
	for _, ins := range rewire {
		n, ok := s.grid.Entity(ins.Entity)
		if !ok {
			continue
		}
		n.Connections = n.Connections.remove(ins.Side, ins.Color, ins.Index, ConnectionPoint{Entity: ins.Other, Side: ins.OtherSide})
		s.grid = s.grid.replace(n)
		changed[ins.Entity] = struct{}{}
	}
	s.grid = s.grid.Remove(id)
	return s, sortedIDs(changed), nil
}

// CreateTile places or replaces the tile at p.
func (bp *Blueprint) CreateTile(kind string, p geom.Point) error {
	if err := errors.ValidateKindName(kind); err != nil {
		return err
	}
	s := bp.state
	s.tiles = s.tiles.with(Tile{Position: p, Kind: kind})
	bp.commit(s, EntryAdd, NoEntity, NoEntity, nil)
	return nil
}

// RemoveTile deletes the tile at p.
func (bp *Blueprint) RemoveTile(p geom.Point) error {
	if _, ok := bp.state.tiles.Get(p); !ok {
		return errors.New(errors.ErrCodeNotFound, "no tile at %v", p)
	}
	s := bp.state
	s.tiles = s.tiles.without(p)
	bp.commit(s, EntryDel, NoEntity, NoEntity, nil)
	return nil
}

// ChangeKind fast-replaces an entity with another kind of the same
// fast-replaceable group and footprint, keeping its id, position, direction
// and wires.
func (bp *Blueprint) ChangeKind(id EntityID, kind string) error {
	e, _, err := bp.lookup(bp.state, id)
	if err != nil {
		return err
	}
	if _, err := bp.catalog.Kind(kind); err != nil {
		return err
	}
	target, ok := bp.state.grid.FastReplaceable(kind, e.Direction, e.Position)
	if !ok || target != id {
		return errors.New(errors.ErrCodePlacementBlocked, "%s cannot replace %s", kind, e.Kind)
	}
	s := bp.state
	e.Kind = kind
	s.grid = s.grid.replace(e)
	bp.commit(s, EntryUpdate, id, NoEntity, []EntityID{id})
	return nil
}

// SetRecipe changes the recipe of an entity. An empty recipe clears it.
func (bp *Blueprint) SetRecipe(id EntityID, recipe string) error {
	e, _, err := bp.lookup(bp.state, id)
	if err != nil {
		return err
	}
	if recipe != "" {
		if _, ok := bp.catalog.Recipe(recipe); !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unknown recipe %q", recipe)
		}
	}
	s := bp.state
	e.Recipe = recipe
	s.grid = s.grid.replace(e)
	bp.commit(s, EntryUpdate, id, NoEntity, []EntityID{id})
	return nil
}

// Connect adds a wire between two entity sides and records it on both
// entities.
func (bp *Blueprint) Connect(c Connection) error {
	s, err := bp.connect(bp.state, c)
	if err != nil {
		return err
	}
	bp.commit(s, EntryUpdate, c.A, c.B, uniqueIDs(c.A, c.B))
	return nil
}

func (bp *Blueprint) connect(s State, c Connection) (State, error) {
	if err := checkWire(c); err != nil {
		return s, err
	}
	a, _, err := bp.lookup(s, c.A)
	if err != nil {
		return s, err
	}
	if _, _, err := bp.lookup(s, c.B); err != nil {
		return s, err
	}
	conns, added := s.conns.Add(c)
	if !added {
		return s, errors.New(errors.ErrCodeInvalidInput, "%d and %d are already wired", c.A, c.B)
	}
	s.conns = conns

	a.Connections = a.Connections.add(c.SideA, c.Color, ConnectionPoint{Entity: c.B, Side: c.SideB})
	s.grid = s.grid.replace(a)
	b, _ := s.grid.Entity(c.B)
	b.Connections = b.Connections.add(c.SideB, c.Color, ConnectionPoint{Entity: c.A, Side: c.SideA})
	s.grid = s.grid.replace(b)
	return s, nil
}

// Disconnect removes a wire from the graph and from both entities.
func (bp *Blueprint) Disconnect(c Connection) error {
	if err := checkWire(c); err != nil {
		return err
	}
	conns, removed := bp.state.conns.Remove(c)
	if !removed {
		return errors.New(errors.ErrCodeNotFound, "%d and %d are not wired", c.A, c.B)
	}
	s := bp.state
	s.conns = conns

	a, _ := s.grid.Entity(c.A)
	a.Connections = a.Connections.remove(c.SideA, c.Color, -1, ConnectionPoint{Entity: c.B, Side: c.SideB})
	s.grid = s.grid.replace(a)
	b, _ := s.grid.Entity(c.B)
	b.Connections = b.Connections.remove(c.SideB, c.Color, -1, ConnectionPoint{Entity: c.A, Side: c.SideA})
	s.grid = s.grid.replace(b)

	bp.commit(s, EntryUpdate, c.A, c.B, uniqueIDs(c.A, c.B))
	return nil
}

func checkWire(c Connection) error {
	if !c.Color.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown wire color %q", c.Color)
	}
	if c.SideA < 1 || c.SideA > 2 || c.SideB < 1 || c.SideB > 2 {
		return errors.New(errors.ErrCodeInvalidInput, "wire sides must be 1 or 2")
	}
	if c.A == c.B && c.SideA == c.SideB {
		return errors.New(errors.ErrCodeInvalidInput, "cannot wire entity %d to itself", c.A)
	}
	return nil
}

func uniqueIDs(ids ...EntityID) []EntityID {
	set := make(map[EntityID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return sortedIDs(set)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
