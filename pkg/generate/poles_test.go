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

func TestPolesPowerEveryConsumer(t *testing.T) {
	cat := catalog.Builtin()
	bp := build(t, cat,
		placed{"assembling-machine-1", geom.Vec{X: 1.5, Y: 1.5}, geom.North},
		placed{"assembling-machine-1", geom.Vec{X: 5.5, Y: 1.5}, geom.North},
		placed{"assembling-machine-1", geom.Vec{X: 24.5, Y: 1.5}, geom.North},
		placed{"electric-furnace", geom.Vec{X: 12.5, Y: 14.5}, geom.North},
		placed{"wooden-chest", geom.Vec{X: 9.5, Y: 9.5}, geom.North},
	)
	opts := PoleOptions{Kind: "small-electric-pole"}
	res, err := Poles(context.Background(), bp.View(), opts)
	if err != nil {
		t.Fatalf("Poles() error: %v", err)
	}
	if res.Info.Unserved != 0 || res.Info.Groups != 1 {
		t.Errorf("Info = %+v, want everything powered in one group", res.Info)
	}

	pole, _ := cat.Lookup("small-electric-pole")
	view := bp.View()
	for _, e := range view.EntitiesWithRole(catalog.RoleNeedsPower) {
		area := view.Area(e)
		powered := false
		for _, r := range res.Requests {
			if geom.SquareAround(r.Position, pole.SupplyAreaDistance).Intersects(area) {
				powered = true
			}
		}
		if !powered {
			t.Errorf("%v is not powered", e)
		}
	}
	for _, l := range res.Links {
		a, b := res.Requests[l[0]].Position, res.Requests[l[1]].Position
		if d := geom.Dist(a, b); d > pole.WireReach {
			t.Errorf("link %v spans %.2f, reach is %.2f", l, d, pole.WireReach)
		}
	}

	ids, err := res.ApplyTo(bp)
	if err != nil {
		t.Fatalf("ApplyTo() error: %v", err)
	}
	networks := bp.Connections().Networks(blueprint.Copper)
	if len(networks) != 1 || !reflect.DeepEqual(networks[0], ids) {
		t.Errorf("copper networks = %v, want one network of %v", networks, ids)
	}
}

func TestPolesDeterministic(t *testing.T) {
	bp := build(t, catalog.Builtin(),
		placed{"assembling-machine-2", geom.Vec{X: 1.5, Y: 1.5}, geom.North},
		placed{"assembling-machine-2", geom.Vec{X: 1.5, Y: 5.5}, geom.North},
		placed{"chemical-plant", geom.Vec{X: 9.5, Y: 3.5}, geom.North},
		placed{"electric-mining-drill", geom.Vec{X: 30.5, Y: 30.5}, geom.North},
	)
	first, err := Poles(context.Background(), bp.View(), PoleOptions{})
	if err != nil {
		t.Fatalf("Poles() error: %v", err)
	}
	again, err := Poles(context.Background(), bp.View(), PoleOptions{})
	if err != nil {
		t.Fatalf("Poles() error: %v", err)
	}
	if !reflect.DeepEqual(stable(first), stable(again)) {
		t.Errorf("results differ:\n%+v\n%+v", first, again)
	}
}

func TestPolesSkipPoweredConsumers(t *testing.T) {
	cat := catalog.Builtin()
	bp := build(t, cat,
		placed{"assembling-machine-1", geom.Vec{X: 1.5, Y: 1.5}, geom.North},
		placed{"small-electric-pole", geom.Vec{X: 3.5, Y: 0.5}, geom.North},
	)
	res, err := Poles(context.Background(), bp.View(), PoleOptions{})
	if err != nil {
		t.Fatalf("Poles() error: %v", err)
	}
	if !res.Info.Trivial || len(res.Requests) != 0 {
		t.Errorf("Poles() = %+v, want trivial", res)
	}

	res, err = Poles(context.Background(), bp.View(), PoleOptions{IgnoreExisting: true})
	if err != nil {
		t.Fatalf("Poles(IgnoreExisting) error: %v", err)
	}
	if len(res.Requests) != 1 {
		t.Errorf("Poles(IgnoreExisting) placed %d poles, want 1", len(res.Requests))
	}
}

func TestPolesErrors(t *testing.T) {
	cat := catalog.Builtin()
	empty := blueprint.New(cat).View()
	if _, err := Poles(context.Background(), empty, PoleOptions{}); !errors.Is(err, errors.ErrCodeNoSolution) {
		t.Errorf("no consumers: error = %v, want NO_SOLUTION", err)
	}

	bp := build(t, cat, placed{"assembling-machine-1", geom.Vec{X: 1.5, Y: 1.5}, geom.North})
	tests := []struct {
		kind string
		code errors.Code
	}{
		{"beacon", errors.ErrCodeInvalidInput},
		{"no-such-pole", errors.ErrCodeUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			_, err := Poles(context.Background(), bp.View(), PoleOptions{Kind: tt.kind})
			if !errors.Is(err, tt.code) {
				t.Errorf("Poles(%s) error = %v, want %s", tt.kind, err, tt.code)
			}
		})
	}
}
