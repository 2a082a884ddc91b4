package generate

import (
	"context"
	"reflect"
	"testing"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

const testCatalogTOML = `
[[kind]]
name = "pipe"
roles = ["pipe"]

[[kind]]
name = "pipe-to-ground"
rotations = ["north", "east", "south", "west"]
roles = ["underground-pipe"]
max_underground_distance = 10

[[kind]]
name = "oil-pump"
size = [3, 3]
rotations = ["north", "east", "south", "west"]
roles = ["pumpjack"]
fluid_plugs = [
  { direction = "north", x = 0, y = -2 },
  { direction = "east", x = 2, y = 0 },
  { direction = "south", x = 0, y = 2 },
  { direction = "west", x = -2, y = 0 },
]

[[kind]]
name = "rock"
size = [2, 2]
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalogTOML), catalog.FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return cat
}

type placed struct {
	kind string
	at   geom.Vec
	dir  geom.Direction
}

func build(t *testing.T, cat *catalog.Catalog, entities ...placed) *blueprint.Blueprint {
	t.Helper()
	bp := blueprint.New(cat, blueprint.WithAssertions(true))
	for _, e := range entities {
		if _, err := bp.CreateEntity(e.kind, e.at, e.dir); err != nil {
			t.Fatalf("CreateEntity(%s, %v) error: %v", e.kind, e.at, err)
		}
	}
	return bp
}

// stable clears the timing so results can be compared.
func stable(r *Result) *Result {
	c := *r
	c.Info.Duration = 0
	return &c
}

func TestValidateName(t *testing.T) {
	for _, name := range Names {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
	if err := ValidateName("trains"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ValidateName(trains) = %v, want INVALID_INPUT", err)
	}
}

func TestRequirePositive(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{-1, false},
		{0, false},
		{1, true},
		{7, true},
	}
	for _, tt := range tests {
		err := RequirePositive("max_turns", tt.n)
		if ok := err == nil; ok != tt.want {
			t.Errorf("RequirePositive(%d) = %v, want ok %v", tt.n, err, tt.want)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("RequirePositive(%d) code = %s, want INVALID_INPUT", tt.n, errors.GetCode(err))
		}
	}
}

func TestRunDispatches(t *testing.T) {
	cat := testCatalog(t)
	bp := build(t, cat,
		placed{"oil-pump", geom.Vec{}, geom.North},
		placed{"oil-pump", geom.Vec{X: 10}, geom.North},
	)
	res, err := Run(context.Background(), GeneratorPipes, bp.View(), Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Info.Generator != GeneratorPipes || res.Info.Targets != 2 {
		t.Errorf("Info = %+v", res.Info)
	}
	if _, err := Run(context.Background(), "trains", bp.View(), Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Run(trains) error = %v", err)
	}
	if _, err := Run(context.Background(), GeneratorBeacons, bp.View(), Options{}); !errors.Is(err, errors.ErrCodeUnknownKind) {
		t.Errorf("Run(beacons) without a beacon kind: error = %v, want UNKNOWN_KIND", err)
	}
}

func TestRunCanceled(t *testing.T) {
	cat := testCatalog(t)
	bp := build(t, cat,
		placed{"oil-pump", geom.Vec{}, geom.North},
		placed{"oil-pump", geom.Vec{X: 10}, geom.North},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Pipes(ctx, bp.View(), PipeOptions{}); err == nil {
		t.Error("Pipes() with canceled context succeeded")
	}
}

func TestResultBatch(t *testing.T) {
	r := &Result{
		Requests: []Request{
			{Kind: "a", Position: geom.Vec{X: 0.5, Y: 0.5}},
			{Kind: "b", Position: geom.Vec{X: 5.5, Y: 0.5}, Direction: geom.East, DirectionType: blueprint.DirectionOutput},
		},
		Rotations: []Rotation{{ID: 7, Direction: geom.South}},
		Links:     [][2]int{{0, 1}},
	}
	got := r.Batch()
	want := blueprint.Batch{
		Turn: []blueprint.Turn{{ID: 7, Direction: geom.South}},
		Place: []blueprint.Placement{
			{Kind: "a", Position: geom.Vec{X: 0.5, Y: 0.5}},
			{Kind: "b", Position: geom.Vec{X: 5.5, Y: 0.5}, Direction: geom.East, DirectionType: blueprint.DirectionOutput},
		},
		Wire: []blueprint.Wire{{From: blueprint.Placed(0), To: blueprint.Placed(1), Color: blueprint.Copper}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Batch() = %+v, want %+v", got, want)
	}
	if r.Empty() || !(&Result{}).Empty() {
		t.Error("Empty() wrong")
	}
}

func TestSortLinks(t *testing.T) {
	links := [][2]int{{3, 1}, {0, 2}, {1, 2}}
	sortLinks(links)
	want := [][2]int{{0, 2}, {1, 2}, {1, 3}}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("sortLinks() = %v, want %v", links, want)
	}
}
