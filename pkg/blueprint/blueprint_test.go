package blueprint

import (
	"reflect"
	"testing"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

func newTestBlueprint(t *testing.T) *Blueprint {
	t.Helper()
	return New(catalog.Builtin(), WithAssertions(true))
}

func mustCreate(t *testing.T, bp *Blueprint, kind string, pos geom.Vec, dir geom.Direction, opts ...EntityOption) EntityID {
	t.Helper()
	id, err := bp.CreateEntity(kind, pos, dir, opts...)
	if err != nil {
		t.Fatalf("CreateEntity(%s, %v) error: %v", kind, pos, err)
	}
	return id
}

// snapshot captures everything undo and redo must reproduce.
type snapshot struct {
	Entities []Entity
	Cells    []CellEntry
	Wires    []Connection
	Tiles    []Tile
}

func take(bp *Blueprint) snapshot {
	return snapshot{
		Entities: bp.Entities(),
		Cells:    bp.Grid().Cells(),
		Wires:    bp.Connections().All(),
		Tiles:    bp.Tiles(),
	}
}

func TestCreateEntityDuplicateBlocked(t *testing.T) {
	bp := newTestBlueprint(t)
	mustCreate(t, bp, "assembling-machine-1", at(1.5, 1.5), geom.North)

	_, err := bp.CreateEntity("assembling-machine-1", at(1.5, 1.5), geom.North)
	if !errors.Is(err, errors.ErrCodePlacementBlocked) {
		t.Fatalf("second CreateEntity error = %v, want PLACEMENT_BLOCKED", err)
	}
	if got := bp.History().Len(); got != 2 {
		t.Errorf("History().Len() = %d, want 2 (failed edit recorded?)", got)
	}
	if len(bp.Entities()) != 1 {
		t.Errorf("entities = %d, want 1", len(bp.Entities()))
	}
}

func TestCreateEntityErrors(t *testing.T) {
	bp := newTestBlueprint(t)

	tests := []struct {
		name string
		kind string
		dir  geom.Direction
		opts []EntityOption
		code errors.Code
	}{
		{"unknown kind", "warp-drive", geom.North, nil, errors.ErrCodeUnknownKind},
		{"disallowed direction", "gate", geom.South, nil, errors.ErrCodeInvalidInput},
		{"unknown recipe", "assembling-machine-2", geom.North, []EntityOption{WithRecipe("cake")}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bp.CreateEntity(tt.kind, at(0.5, 0.5), tt.dir, tt.opts...)
			if !errors.Is(err, tt.code) {
				t.Errorf("CreateEntity() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCreateSnapsPosition(t *testing.T) {
	bp := newTestBlueprint(t)
	id := mustCreate(t, bp, "assembling-machine-1", at(0, 0), geom.North)
	e, _ := bp.Entity(id)
	if e.Position != at(0.5, 0.5) {
		t.Errorf("Position = %v, want (0.5,0.5)", e.Position)
	}
	pipe := mustCreate(t, bp, "pipe", at(5, 5), geom.East)
	p, _ := bp.Entity(pipe)
	if p.Position != at(5.5, 5.5) || p.Direction != geom.North {
		t.Errorf("pipe = %v, want (5.5,5.5) north", p)
	}
}

func TestRailOverGate(t *testing.T) {
	bp := newTestBlueprint(t)
	mustCreate(t, bp, "gate", at(0.5, 0.5), geom.East)

	if _, err := bp.CreateEntity("straight-rail", at(1, 1), geom.North); err != nil {
		t.Fatalf("rail over perpendicular gate: %v", err)
	}
	if got := bp.Grid().EntitiesAt(geom.Pt(0, 0)); len(got) != 2 {
		t.Errorf("EntitiesAt(0,0) = %v, want gate and rail", got)
	}
	if _, err := bp.CreateEntity("straight-rail", at(1, 1), geom.East); !errors.Is(err, errors.ErrCodePlacementBlocked) {
		t.Errorf("crossing rail over gate error = %v, want PLACEMENT_BLOCKED", err)
	}
}

func TestMoveEntity(t *testing.T) {
	bp := newTestBlueprint(t)
	a := mustCreate(t, bp, "assembling-machine-1", at(1.5, 1.5), geom.North)
	mustCreate(t, bp, "wooden-chest", at(6.5, 1.5), geom.North)

	if err := bp.MoveEntity(a, at(2.5, 1.5)); err != nil {
		t.Fatalf("MoveEntity onto own footprint: %v", err)
	}
	if err := bp.MoveEntity(a, at(5.5, 1.5)); !errors.Is(err, errors.ErrCodePlacementBlocked) {
		t.Errorf("MoveEntity onto chest error = %v, want PLACEMENT_BLOCKED", err)
	}
	if err := bp.MoveEntity(99, at(0, 0)); !errors.Is(err, errors.ErrCodeUnknownEntity) {
		t.Errorf("MoveEntity(stale) error = %v, want UNKNOWN_ENTITY", err)
	}
	e, _ := bp.Entity(a)
	if e.Position != at(2.5, 1.5) {
		t.Errorf("Position = %v, want (2.5,1.5)", e.Position)
	}
	if last := bp.History().Entries()[bp.History().Cursor()]; last.Kind != EntryMove {
		t.Errorf("last entry kind = %v, want move", last.Kind)
	}
}

func TestRotateEntity(t *testing.T) {
	t.Run("cycles directions", func(t *testing.T) {
		bp := newTestBlueprint(t)
		id := mustCreate(t, bp, "inserter", at(0.5, 0.5), geom.North)
		for _, want := range []geom.Direction{geom.East, geom.South, geom.West, geom.North} {
			if err := bp.RotateEntity(id, false, true); err != nil {
				t.Fatal(err)
			}
			if e, _ := bp.Entity(id); e.Direction != want {
				t.Fatalf("Direction = %v, want %v", e.Direction, want)
			}
		}
		bp.RotateEntity(id, true, true)
		if e, _ := bp.Entity(id); e.Direction != geom.West {
			t.Errorf("ccw Direction = %v, want west", e.Direction)
		}
	})

	t.Run("no rotation set", func(t *testing.T) {
		bp := newTestBlueprint(t)
		id := mustCreate(t, bp, "pipe", at(0.5, 0.5), geom.North)
		if err := bp.RotateEntity(id, false, true); !errors.Is(err, errors.ErrCodeRotationRejected) {
			t.Errorf("error = %v, want ROTATION_REJECTED", err)
		}
	})

	t.Run("single rotation", func(t *testing.T) {
		cat, err := catalog.Parse([]byte(`
[[kind]]
name = "signpost"
rotations = ["north"]
`), catalog.FormatTOML)
		if err != nil {
			t.Fatal(err)
		}
		bp := New(cat, WithAssertions(true))
		id := mustCreate(t, bp, "signpost", at(0.5, 0.5), geom.North)
		before := bp.History().Len()
		if err := bp.RotateEntity(id, false, true); !errors.Is(err, errors.ErrCodeRotationRejected) {
			t.Errorf("error = %v, want ROTATION_REJECTED", err)
		}
		if got := bp.History().Len(); got != before {
			t.Errorf("History().Len() = %d, want %d", got, before)
		}
	})

	t.Run("fluid assembler needs fluid recipe", func(t *testing.T) {
		bp := newTestBlueprint(t)
		id := mustCreate(t, bp, "assembling-machine-2", at(1.5, 1.5), geom.North, WithRecipe("iron-gear-wheel"))
		if err := bp.RotateEntity(id, false, true); !errors.Is(err, errors.ErrCodeRotationRejected) {
			t.Errorf("error = %v, want ROTATION_REJECTED", err)
		}
		if err := bp.SetRecipe(id, "plastic-bar"); err != nil {
			t.Fatal(err)
		}
		if err := bp.RotateEntity(id, false, true); err != nil {
			t.Errorf("rotation with fluid recipe: %v", err)
		}
	})

	t.Run("odd footprint shifts in place", func(t *testing.T) {
		bp := newTestBlueprint(t)
		id := mustCreate(t, bp, "splitter", at(1, 0.5), geom.North)
		if err := bp.RotateEntity(id, false, true); err != nil {
			t.Fatal(err)
		}
		e, _ := bp.Entity(id)
		if e.Position != at(1.5, 1) {
			t.Errorf("east Position = %v, want (1.5,1)", e.Position)
		}
		if got := bp.View().Area(e); got != (geom.Area{X: 1, Y: 0, W: 1, H: 2}) {
			t.Errorf("east Area = %v", got)
		}
		bp.RotateEntity(id, false, true)
		e, _ = bp.Entity(id)
		if e.Position != at(1, 0.5) {
			t.Errorf("south Position = %v, want (1,0.5)", e.Position)
		}
	})

	t.Run("in place overlap rejected", func(t *testing.T) {
		bp := newTestBlueprint(t)
		id := mustCreate(t, bp, "splitter", at(1, 0.5), geom.North)
		mustCreate(t, bp, "wooden-chest", at(1.5, 1.5), geom.North)
		if err := bp.RotateEntity(id, false, true); !errors.Is(err, errors.ErrCodeRotationRejected) {
			t.Errorf("error = %v, want ROTATION_REJECTED", err)
		}
		// While dragged the overlap is tolerated.
		bp.assertions = false
		if err := bp.RotateEntity(id, false, false); err != nil {
			t.Errorf("dragged rotation error = %v", err)
		}
	})
}

func TestRemoveUndoRestoresConnections(t *testing.T) {
	bp := newTestBlueprint(t)
	a := mustCreate(t, bp, "constant-combinator", at(0.5, 0.5), geom.North)
	b := mustCreate(t, bp, "arithmetic-combinator", at(2.5, 1), geom.North)
	c := mustCreate(t, bp, "small-lamp", at(4.5, 0.5), geom.North)

	for _, w := range []Connection{
		{A: a, B: b, Color: Red, SideA: 1, SideB: 1},
		{A: b, B: c, Color: Green, SideA: 2, SideB: 1},
		{A: a, B: c, Color: Red, SideA: 1, SideB: 1},
	} {
		if err := bp.Connect(w); err != nil {
			t.Fatalf("Connect(%v): %v", w, err)
		}
	}
	before := take(bp)

	neighbors, err := bp.RemoveEntity(b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(neighbors, []EntityID{a, c}) {
		t.Errorf("RemoveEntity neighbors = %v, want [%d %d]", neighbors, a, c)
	}
	ea, _ := bp.Entity(a)
	if len(ea.Connections[1][Red]) != 1 || ea.Connections[1][Red][0].Entity != c {
		t.Errorf("a still references b: %v", ea.Connections)
	}

	affected, ok := bp.Undo()
	if !ok {
		t.Fatal("Undo() = false")
	}
	if !reflect.DeepEqual(affected, []EntityID{b, a, c}) {
		t.Errorf("Undo affected = %v", affected)
	}
	if after := take(bp); !reflect.DeepEqual(after, before) {
		t.Errorf("state after undo differs:\n got %+v\nwant %+v", after, before)
	}
}

func TestUndoRedoStructuralEquality(t *testing.T) {
	bp := newTestBlueprint(t)
	var states []snapshot
	states = append(states, take(bp))

	a := mustCreate(t, bp, "assembling-machine-2", at(1.5, 1.5), geom.North, WithRecipe("plastic-bar"))
	states = append(states, take(bp))
	p := mustCreate(t, bp, "small-electric-pole", at(3.5, 0.5), geom.North)
	states = append(states, take(bp))
	steps := []func() error{
		func() error { return bp.MoveEntity(a, at(1.5, 4.5)) },
		func() error { return bp.RotateEntity(a, false, true) },
		func() error { return bp.CreateTile("concrete", geom.Pt(9, 9)) },
		func() error { return bp.Connect(Connection{A: a, B: p, Color: Red, SideA: 1, SideB: 1}) },
		func() error { return bp.ChangeKind(a, "assembling-machine-3") },
		func() error { _, err := bp.RemoveEntity(p); return err },
		func() error { return bp.RemoveTile(geom.Pt(9, 9)) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		states = append(states, take(bp))
	}

	for i := len(states) - 2; i >= 0; i-- {
		if _, ok := bp.Undo(); !ok {
			t.Fatalf("Undo to %d failed", i)
		}
		if got := take(bp); !reflect.DeepEqual(got, states[i]) {
			t.Fatalf("after undo to %d:\n got %+v\nwant %+v", i, got, states[i])
		}
	}
	for i := 1; i < len(states); i++ {
		if _, ok := bp.Redo(); !ok {
			t.Fatalf("Redo to %d failed", i)
		}
		if got := take(bp); !reflect.DeepEqual(got, states[i]) {
			t.Fatalf("after redo to %d:\n got %+v\nwant %+v", i, got, states[i])
		}
	}
	if _, ok := bp.Redo(); ok {
		t.Error("Redo past newest succeeded")
	}
}

func TestChangeKind(t *testing.T) {
	bp := newTestBlueprint(t)
	id := mustCreate(t, bp, "transport-belt", at(0.5, 0.5), geom.East)
	if err := bp.ChangeKind(id, "fast-transport-belt"); err != nil {
		t.Fatal(err)
	}
	if e, _ := bp.Entity(id); e.Kind != "fast-transport-belt" || e.Direction != geom.East {
		t.Errorf("entity = %v", e)
	}
	if err := bp.ChangeKind(id, "wooden-chest"); !errors.Is(err, errors.ErrCodePlacementBlocked) {
		t.Errorf("ChangeKind across groups error = %v, want PLACEMENT_BLOCKED", err)
	}
}

func TestConnectErrors(t *testing.T) {
	bp := newTestBlueprint(t)
	a := mustCreate(t, bp, "constant-combinator", at(0.5, 0.5), geom.North)
	b := mustCreate(t, bp, "constant-combinator", at(1.5, 0.5), geom.North)

	tests := []struct {
		name string
		c    Connection
		code errors.Code
	}{
		{"bad color", Connection{A: a, B: b, Color: "blue", SideA: 1, SideB: 1}, errors.ErrCodeInvalidInput},
		{"bad side", Connection{A: a, B: b, Color: Red, SideA: 3, SideB: 1}, errors.ErrCodeInvalidInput},
		{"self", Connection{A: a, B: a, Color: Red, SideA: 1, SideB: 1}, errors.ErrCodeInvalidInput},
		{"stale", Connection{A: a, B: 77, Color: Red, SideA: 1, SideB: 1}, errors.ErrCodeUnknownEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := bp.Connect(tt.c); !errors.Is(err, tt.code) {
				t.Errorf("Connect() error = %v, want %s", err, tt.code)
			}
		})
	}

	w := Connection{A: a, B: b, Color: Green, SideA: 1, SideB: 1}
	if err := bp.Connect(w); err != nil {
		t.Fatal(err)
	}
	if err := bp.Connect(w); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate Connect error = %v", err)
	}
	if err := bp.Disconnect(w); err != nil {
		t.Fatal(err)
	}
	if err := bp.Disconnect(w); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second Disconnect error = %v, want NOT_FOUND", err)
	}
	if e, _ := bp.Entity(a); e.Connections != nil {
		t.Errorf("inline data left after disconnect: %v", e.Connections)
	}
}

func TestApplyAtomic(t *testing.T) {
	bp := newTestBlueprint(t)
	chest := mustCreate(t, bp, "wooden-chest", at(5.5, 0.5), geom.North)
	before := take(bp)
	historyLen := bp.History().Len()

	_, err := bp.Apply(Batch{
		Place: []Placement{
			{Kind: "small-electric-pole", Position: at(0.5, 0.5)},
			{Kind: "small-electric-pole", Position: at(5.5, 0.5)}, // on the chest
		},
	})
	if !errors.Is(err, errors.ErrCodePlacementBlocked) {
		t.Fatalf("Apply() error = %v, want PLACEMENT_BLOCKED", err)
	}
	if got := take(bp); !reflect.DeepEqual(got, before) || bp.History().Len() != historyLen {
		t.Fatal("failed batch changed the blueprint")
	}

	ids, err := bp.Apply(Batch{
		Remove: []EntityID{chest},
		Place: []Placement{
			{Kind: "small-electric-pole", Position: at(0.5, 0.5)},
			{Kind: "small-electric-pole", Position: at(5.5, 0.5)},
		},
		Wire: []Wire{{From: Placed(0), To: Placed(1), Color: Copper}},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(ids) != 2 || bp.History().Len() != historyLen+1 {
		t.Fatalf("ids = %v, history %d", ids, bp.History().Len())
	}
	if nets := bp.Connections().Networks(Copper); !reflect.DeepEqual(nets, [][]EntityID{ids}) {
		t.Errorf("copper networks = %v, want %v", nets, [][]EntityID{ids})
	}

	bp.Undo()
	if got := take(bp); !reflect.DeepEqual(got, before) {
		t.Error("undo of batch did not restore the prior state")
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	bp := New(catalog.Builtin())
	id := mustCreate(t, bp, "wooden-chest", at(0.5, 0.5), geom.North)
	if err := bp.Validate(); err != nil {
		t.Fatalf("Validate() on clean blueprint: %v", err)
	}

	e, _ := bp.Entity(id)
	e.Position = at(3.5, 3.5)
	bp.state.grid = bp.state.grid.replace(e)
	if err := bp.Validate(); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Validate() after corruption = %v, want INTERNAL_ERROR", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("assertions did not panic on corrupted state")
		}
	}()
	bp.assertions = true
	bp.CreateTile("concrete", geom.Pt(0, 0))
}

func TestViewIsImmutable(t *testing.T) {
	bp := newTestBlueprint(t)
	mustCreate(t, bp, "beacon", at(1.5, 1.5), geom.North)
	v := bp.View()
	hash := v.Hash()

	mustCreate(t, bp, "beacon", at(4.5, 1.5), geom.North)
	if v.Len() != 1 {
		t.Errorf("View Len() = %d after later edit, want 1", v.Len())
	}
	if v.Hash() != hash {
		t.Error("View hash changed after later edit")
	}
	if bp.View().Hash() == hash {
		t.Error("hash ignores new entity")
	}
	if got := bp.Bounds(); got != (geom.Area{X: 0, Y: 0, W: 6, H: 3}) {
		t.Errorf("Bounds() = %v", got)
	}
	if got := len(v.EntitiesWithRole(catalog.RoleBeacon)); got != 1 {
		t.Errorf("EntitiesWithRole(beacon) = %d, want 1", got)
	}
}

func TestEntityConnectionsAreCopies(t *testing.T) {
	bp := newTestBlueprint(t)
	a := mustCreate(t, bp, "constant-combinator", at(0.5, 0.5), geom.North)
	b := mustCreate(t, bp, "small-lamp", at(2.5, 0.5), geom.North)
	if err := bp.Connect(Connection{A: a, B: b, Color: Red, SideA: 1, SideB: 1}); err != nil {
		t.Fatal(err)
	}
	v := bp.View()
	hash := v.Hash()

	e, _ := v.Entity(a)
	e.Connections[1][Red][0].Entity = 99
	delete(e.Connections, 1)
	for _, e := range v.Entities() {
		clear(e.Connections)
	}

	if v.Hash() != hash {
		t.Error("writing to returned Connections changed the view")
	}
	got, _ := bp.Entity(a)
	if pts := got.Connections[1][Red]; len(pts) != 1 || pts[0].Entity != b {
		t.Errorf("Connections = %v, want one red wire to %d", got.Connections, b)
	}
	if err := bp.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
