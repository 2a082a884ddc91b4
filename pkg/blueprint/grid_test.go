package blueprint

import (
	"reflect"
	"testing"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/geom"
)

func at(x, y float64) geom.Vec { return geom.Vec{X: x, Y: y} }

func gridWith(entities ...Entity) PositionGrid {
	return NewPositionGrid(catalog.Builtin()).BulkIndex(entities)
}

func TestIsAreaAvailableCrossings(t *testing.T) {
	gateN := Entity{ID: 1, Kind: "gate", Position: at(0.5, 0.5), Direction: geom.North}
	gateE := Entity{ID: 1, Kind: "gate", Position: at(0.5, 0.5), Direction: geom.East}
	railN := Entity{ID: 2, Kind: "straight-rail", Position: at(1, 1), Direction: geom.North}
	railE := Entity{ID: 3, Kind: "straight-rail", Position: at(1, 1), Direction: geom.East}
	curved := Entity{ID: 4, Kind: "curved-rail", Position: at(2, 4), Direction: geom.North}
	chest := Entity{ID: 5, Kind: "wooden-chest", Position: at(0.5, 0.5)}

	tests := []struct {
		name     string
		existing []Entity
		kind     string
		dir      geom.Direction
		pos      geom.Vec
		want     bool
	}{
		{"empty grid", nil, "wooden-chest", geom.North, at(0.5, 0.5), true},
		{"chest on chest", []Entity{chest}, "iron-chest", geom.North, at(0.5, 0.5), false},
		{"rail over perpendicular gate", []Entity{gateE}, "straight-rail", geom.North, at(1, 1), true},
		{"rail over parallel gate", []Entity{gateN}, "straight-rail", geom.North, at(1, 1), false},
		{"gate over perpendicular rail", []Entity{railN}, "gate", geom.East, at(0.5, 0.5), true},
		{"gate over parallel rail", []Entity{railN}, "gate", geom.North, at(0.5, 0.5), false},
		{"gate over two rails", []Entity{railN, railE}, "gate", geom.East, at(0.5, 0.5), false},
		{"gate over gate", []Entity{gateN}, "gate", geom.East, at(0.5, 0.5), false},
		{"rail over same-direction rail", []Entity{railN}, "straight-rail", geom.North, at(1, 1), true},
		{"rail over crossing rail", []Entity{railN}, "straight-rail", geom.East, at(1, 1), false},
		{"rail over curved rail", []Entity{curved}, "straight-rail", geom.North, at(1, 1), true},
		{"crossing rail over curved rail", []Entity{curved}, "straight-rail", geom.East, at(1, 1), true},
		{"rail over curved rail and crossing rail", []Entity{curved, railE}, "straight-rail", geom.North, at(1, 1), false},
		{"rail over curved rail and gate", []Entity{curved, gateE}, "straight-rail", geom.North, at(1, 1), false},
		{"curved over straight", []Entity{railN}, "curved-rail", geom.North, at(2, 4), true},
		{"curved over curved", []Entity{curved}, "curved-rail", geom.North, at(2, 4), false},
		{"curved over gate", []Entity{gateN}, "curved-rail", geom.North, at(2, 4), false},
		{"chest over rail", []Entity{railN}, "wooden-chest", geom.North, at(0.5, 0.5), false},
		{"rail over chest", []Entity{chest}, "straight-rail", geom.North, at(1, 1), false},
		{"unknown kind", nil, "warp-drive", geom.North, at(0.5, 0.5), false},
		{"off grid kind", []Entity{chest}, "land-mine", geom.North, at(0.5, 0.5), true},
		{"adjacent cells", []Entity{chest}, "iron-chest", geom.North, at(1.5, 0.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gridWith(tt.existing...)
			if got := g.IsAreaAvailable(tt.kind, tt.dir, tt.pos, NoEntity); got != tt.want {
				t.Errorf("IsAreaAvailable(%s, %v, %v) = %v, want %v", tt.kind, tt.dir, tt.pos, got, tt.want)
			}
		})
	}
}

func TestIsAreaAvailableIgnore(t *testing.T) {
	g := gridWith(Entity{ID: 7, Kind: "assembling-machine-1", Position: at(1.5, 1.5)})
	if g.IsAreaAvailable("assembling-machine-1", geom.North, at(2.5, 1.5), NoEntity) {
		t.Error("overlapping move allowed without ignore")
	}
	if !g.IsAreaAvailable("assembling-machine-1", geom.North, at(2.5, 1.5), 7) {
		t.Error("move blocked by own footprint")
	}
}

func TestAddRemoveCollapse(t *testing.T) {
	gate := Entity{ID: 1, Kind: "gate", Position: at(0.5, 0.5), Direction: geom.East}
	rail := Entity{ID: 2, Kind: "straight-rail", Position: at(1, 1), Direction: geom.North}

	g := gridWith(gate, rail)
	if got := g.EntitiesAt(geom.Pt(0, 0)); !reflect.DeepEqual(got, []EntityID{1, 2}) {
		t.Fatalf("EntitiesAt(0,0) = %v, want [1 2]", got)
	}
	if got := g.EntitiesAt(geom.Pt(1, 1)); !reflect.DeepEqual(got, []EntityID{2}) {
		t.Fatalf("EntitiesAt(1,1) = %v, want [2]", got)
	}

	after := g.Remove(1)
	if got := after.EntitiesAt(geom.Pt(0, 0)); !reflect.DeepEqual(got, []EntityID{2}) {
		t.Errorf("after Remove(1) EntitiesAt(0,0) = %v, want [2]", got)
	}
	// The original grid is untouched.
	if got := g.EntitiesAt(geom.Pt(0, 0)); len(got) != 2 {
		t.Errorf("persistent grid changed: %v", got)
	}

	empty := after.Remove(2)
	if len(empty.Cells()) != 0 || empty.Entities().Len() != 0 {
		t.Errorf("grid not empty after removing everything: %v", empty.Cells())
	}
}

func TestOffGridNotIndexed(t *testing.T) {
	g := gridWith(Entity{ID: 1, Kind: "land-mine", Position: at(0.5, 0.5)})
	if g.Occupied(geom.Pt(0, 0)) {
		t.Error("off-grid entity indexed")
	}
	if _, ok := g.Entity(1); !ok {
		t.Error("off-grid entity missing from table")
	}
}

func TestFastReplaceable(t *testing.T) {
	belt := Entity{ID: 1, Kind: "transport-belt", Position: at(0.5, 0.5), Direction: geom.East}
	asm := Entity{ID: 2, Kind: "assembling-machine-1", Position: at(5.5, 5.5)}
	g := gridWith(belt, asm)

	tests := []struct {
		name   string
		kind   string
		pos    geom.Vec
		wantID EntityID
		wantOK bool
	}{
		{"belt upgrade", "fast-transport-belt", at(0.5, 0.5), 1, true},
		{"same kind", "transport-belt", at(0.5, 0.5), NoEntity, false},
		{"other group", "wooden-chest", at(0.5, 0.5), NoEntity, false},
		{"assembler upgrade", "assembling-machine-2", at(5.5, 5.5), 2, true},
		{"shifted footprint", "assembling-machine-2", at(6.5, 5.5), NoEntity, false},
		{"empty", "fast-transport-belt", at(9.5, 9.5), NoEntity, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := g.FastReplaceable(tt.kind, geom.North, tt.pos)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("FastReplaceable() = %d, %v, want %d, %v", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestSameKindDifferentDirection(t *testing.T) {
	g := gridWith(
		Entity{ID: 1, Kind: "inserter", Position: at(0.5, 0.5), Direction: geom.North},
		Entity{ID: 2, Kind: "straight-rail", Position: at(5, 5), Direction: geom.North},
	)
	if id, ok := g.SameKindDifferentDirection("inserter", geom.East, at(0.5, 0.5)); !ok || id != 1 {
		t.Errorf("inserter turned = %d, %v, want 1, true", id, ok)
	}
	if _, ok := g.SameKindDifferentDirection("inserter", geom.North, at(0.5, 0.5)); ok {
		t.Error("same direction reported")
	}
	if _, ok := g.SameKindDifferentDirection("straight-rail", geom.East, at(5, 5)); ok {
		t.Error("straight rail reported")
	}
}

func TestFindPaired(t *testing.T) {
	g := gridWith(
		Entity{ID: 1, Kind: "underground-belt", Position: at(0.5, 0.5), Direction: geom.East},
		Entity{ID: 2, Kind: "underground-belt", Position: at(5.5, 0.5), Direction: geom.East},
		Entity{ID: 3, Kind: "underground-belt", Position: at(0.5, 5.5), Direction: geom.South},
		Entity{ID: 4, Kind: "underground-belt", Position: at(0.5, 8.5), Direction: geom.North},
		Entity{ID: 5, Kind: "wooden-chest", Position: at(-2.5, 0.5)},
	)

	tests := []struct {
		name   string
		pos    geom.Vec
		dir    geom.Direction
		search geom.Direction
		max    int
		want   PairResult
	}{
		{"found east", at(0.5, 0.5), geom.East, geom.East, 5, PairResult{PairFound, 2}},
		{"out of range", at(0.5, 0.5), geom.East, geom.East, 4, PairResult{PairNotFound, 0}},
		{"blocked by opposite", at(0.5, 5.5), geom.South, geom.South, 5, PairResult{PairBlocked, 4}},
		{"other kinds skipped", at(0.5, 0.5), geom.West, geom.West, 5, PairResult{PairNotFound, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.FindPaired("underground-belt", tt.dir, tt.pos, tt.search, tt.max)
			if got != tt.want {
				t.Errorf("FindPaired() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	g := gridWith(
		Entity{ID: 1, Kind: "assembling-machine-1", Position: at(1.5, 1.5)},
		Entity{ID: 2, Kind: "inserter", Position: at(1.5, -0.5)},
		Entity{ID: 3, Kind: "inserter", Position: at(3.5, 0.5)},
		Entity{ID: 4, Kind: "inserter", Position: at(3.5, 2.5)},
		Entity{ID: 5, Kind: "wooden-chest", Position: at(3.5, 3.5)},
	)
	got := g.Neighbors(geom.Area{X: 0, Y: 0, W: 3, H: 3})
	want := [4][]EntityID{{2}, {3, 4}, nil, nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors() = %v, want %v", got, want)
	}
}
