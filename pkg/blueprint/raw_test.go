package blueprint

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

const rawFixture = `{
  "entities": [
    {"entity_number": 3, "name": "constant-combinator", "position": {"x": 0.5, "y": 0.5},
     "connections": {"1": {"red": [{"entity_id": 7}]}}},
    {"entity_number": 7, "name": "arithmetic-combinator", "position": {"x": 2.5, "y": 1}, "direction": 0},
    {"entity_number": 8, "name": "small-electric-pole", "position": {"x": 4.5, "y": 0.5}, "neighbours": [9, 40]},
    {"entity_number": 9, "name": "small-electric-pole", "position": {"x": 9.5, "y": 0.5}},
    {"entity_number": 10, "name": "pipe-to-ground", "position": {"x": 0.5, "y": 5.5}, "direction": 6, "type": "input"},
    {"entity_number": 11, "name": "gate", "position": {"x": 20.5, "y": 20.5}, "direction": 0},
    {"entity_number": 12, "name": "straight-rail", "position": {"x": 21, "y": 21}, "direction": 0}
  ],
  "tiles": [
    {"name": "concrete", "position": {"x": 1, "y": 3}},
    {"name": "concrete", "position": {"x": 0, "y": 3}}
  ]
}`

func TestReadJSON(t *testing.T) {
	bp, err := ReadJSON(catalog.Builtin(), strings.NewReader(rawFixture), WithAssertions(true))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if got := len(bp.Entities()); got != 7 {
		t.Errorf("entities = %d, want 7", got)
	}

	// The one-sided red wire is completed on entity 7.
	e7, _ := bp.Entity(7)
	if got := e7.Connections[1][Red]; len(got) != 1 || got[0] != (ConnectionPoint{Entity: 3, Side: 1}) {
		t.Errorf("entity 7 red = %v", got)
	}
	// The copper neighbour 40 does not exist and is dropped.
	if got := bp.Connections().Networks(Copper); !reflect.DeepEqual(got, [][]EntityID{{8, 9}}) {
		t.Errorf("copper networks = %v", got)
	}
	// Imported crossings are indexed as they are.
	if got := bp.Grid().EntitiesAt(geom.Pt(20, 20)); !reflect.DeepEqual(got, []EntityID{11, 12}) {
		t.Errorf("EntitiesAt(20,20) = %v", got)
	}

	// New ids continue after the highest imported number.
	id, err := bp.CreateEntity("wooden-chest", at(30.5, 30.5), geom.North)
	if err != nil || id != 13 {
		t.Errorf("CreateEntity() = %d, %v, want 13", id, err)
	}
	if bp.History().Len() != 2 || bp.History().Entries()[0].Kind != EntryInit {
		t.Error("import is not the Init entry")
	}
	ptg, _ := bp.Entity(10)
	if ptg.DirectionType != DirectionInput || ptg.Direction != geom.West {
		t.Errorf("pipe-to-ground = %+v", ptg)
	}
}

func TestRawRoundTripStable(t *testing.T) {
	bp, err := ReadJSON(catalog.Builtin(), strings.NewReader(rawFixture))
	if err != nil {
		t.Fatal(err)
	}
	var first bytes.Buffer
	if err := bp.WriteJSON(&first); err != nil {
		t.Fatal(err)
	}
	again, err := ReadJSON(catalog.Builtin(), bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	var second bytes.Buffer
	again.WriteJSON(&second)
	if first.String() != second.String() {
		t.Errorf("export not stable:\n%s\n---\n%s", first.String(), second.String())
	}
	if bp.View().Hash() != again.View().Hash() {
		t.Error("Hash differs after round trip")
	}

	raw := again.ToRaw()
	if raw.Tiles[0].Position.X != 0 || raw.Tiles[1].Position.X != 1 {
		t.Errorf("tiles not sorted: %+v", raw.Tiles)
	}
	if got := raw.Entities[0].Connections["1"]["red"]; len(got) != 1 || got[0].EntityID != 7 || got[0].CircuitID != 1 {
		t.Errorf("entity 3 red export = %+v", got)
	}
}

func TestFromRawErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		code errors.Code
	}{
		{"syntax", `{"entities": [`, errors.ErrCodeInvalidFormat},
		{"unknown field", `{"entities": [], "icons": []}`, errors.ErrCodeInvalidFormat},
		{"unknown kind", `{"entities": [{"entity_number": 1, "name": "warp-drive", "position": {"x": 0, "y": 0}}]}`, errors.ErrCodeUnknownKind},
		{"missing number", `{"entities": [{"name": "pipe", "position": {"x": 0, "y": 0}}]}`, errors.ErrCodeInvalidInput},
		{"duplicate number", `{"entities": [
			{"entity_number": 1, "name": "pipe", "position": {"x": 0.5, "y": 0.5}},
			{"entity_number": 1, "name": "pipe", "position": {"x": 1.5, "y": 0.5}}]}`, errors.ErrCodeInvalidInput},
		{"diagonal", `{"entities": [{"entity_number": 1, "name": "inserter", "position": {"x": 0, "y": 0}, "direction": 3}]}`, errors.ErrCodeInvalidInput},
		{"bad side", `{"entities": [{"entity_number": 1, "name": "pipe", "position": {"x": 0, "y": 0}, "connections": {"x": {}}}]}`, errors.ErrCodeInvalidInput},
		{"bad type", `{"entities": [{"entity_number": 1, "name": "pipe-to-ground", "position": {"x": 0, "y": 0}, "type": "sideways"}]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(catalog.Builtin(), strings.NewReader(tt.json))
			if !errors.Is(err, tt.code) {
				t.Errorf("ReadJSON() error = %v, want %s", err, tt.code)
			}
		})
	}
}
