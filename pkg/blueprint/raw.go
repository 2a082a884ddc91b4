package blueprint

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// Raw is the flat, serializable form of a blueprint.
type Raw struct {
	Entities []RawEntity `json:"entities"`
	Tiles    []RawTile   `json:"tiles,omitempty"`
}

// RawPosition is a position in the raw form.
type RawPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawEntity is one entity in the raw form. Circuit wires are listed under
// Connections keyed by side ("1", "2") and color; copper wires between poles
// are listed under Neighbours.
type RawEntity struct {
	EntityNumber uint64                                     `json:"entity_number"`
	Name         string                                     `json:"name"`
	Position     RawPosition                                `json:"position"`
	Direction    int                                        `json:"direction,omitempty"`
	Type         string                                     `json:"type,omitempty"`
	Recipe       string                                     `json:"recipe,omitempty"`
	Connections  map[string]map[string][]RawConnectionPoint `json:"connections,omitempty"`
	Neighbours   []uint64                                   `json:"neighbours,omitempty"`
}

// RawConnectionPoint is the far end of a circuit wire.
type RawConnectionPoint struct {
	EntityID  uint64 `json:"entity_id"`
	CircuitID int    `json:"circuit_id,omitempty"`
}

// RawTile is one tile in the raw form.
type RawTile struct {
	Name     string      `json:"name"`
	Position RawPosition `json:"position"`
}

// DecodeRaw reads the JSON form of a raw blueprint.
func DecodeRaw(r io.Reader) (Raw, error) {
	var raw Raw
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode blueprint")
	}
	return raw, nil
}

// Encode writes the indented JSON form of r.
func (r Raw) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadJSON decodes a raw blueprint from r and builds it with [FromRaw].
func ReadJSON(cat *catalog.Catalog, r io.Reader, opts ...Option) (*Blueprint, error) {
	raw, err := DecodeRaw(r)
	if err != nil {
		return nil, err
	}
	return FromRaw(cat, raw, opts...)
}

// WriteJSON writes the raw form of the current state to w.
func (bp *Blueprint) WriteJSON(w io.Writer) error {
	return bp.ToRaw().Encode(w)
}

// ToRaw exports the current state.
func (bp *Blueprint) ToRaw() Raw { return bp.View().ToRaw() }

// FromRaw builds a blueprint from its raw form. Entity numbers are kept as
// ids. Entities are indexed without overlap checks, so imported crossings
// survive as they are. Wires listed by only one end are completed, and
// wires to entity numbers that do not exist are dropped.
func FromRaw(cat *catalog.Catalog, raw Raw, opts ...Option) (*Blueprint, error) {
	entities := make([]Entity, 0, len(raw.Entities))
	seen := make(map[EntityID]struct{}, len(raw.Entities))
	next := EntityID(1)
	for _, re := range raw.Entities {
		e, err := re.entity(cat)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[e.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "entity number %d used twice", e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.ID >= next {
			next = e.ID + 1
		}
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })

	conns := RebuildFrom(entities)
	for i := range entities {
		entities[i].Connections = conns.inline(entities[i].ID)
	}

	tiles := newTileTable()
	for _, rt := range raw.Tiles {
		if err := errors.ValidateKindName(rt.Name); err != nil {
			return nil, err
		}
		p := geom.Vec{X: rt.Position.X, Y: rt.Position.Y}.Cell()
		tiles = tiles.with(Tile{Position: p, Kind: rt.Name})
	}

	s := State{
		grid:   NewPositionGrid(cat).BulkIndex(entities),
		tiles:  tiles,
		conns:  conns,
		nextID: next,
	}
	bp := newBlueprint(cat, s, opts)
	bp.logger.Debug("imported", "entities", len(entities), "tiles", tiles.Len(), "wires", conns.Len())
	bp.assert()
	return bp, nil
}

func (re RawEntity) entity(cat *catalog.Catalog) (Entity, error) {
	if re.EntityNumber == 0 {
		return Entity{}, errors.New(errors.ErrCodeInvalidInput, "entity %q has no entity number", re.Name)
	}
	k, err := cat.Kind(re.Name)
	if err != nil {
		return Entity{}, err
	}
	dir := geom.Direction(re.Direction)
	if re.Direction < 0 || !dir.Valid() {
		return Entity{}, errors.New(errors.ErrCodeInvalidInput, "entity %d: unsupported direction %d", re.EntityNumber, re.Direction)
	}
	dt, err := ParseDirectionType(re.Type)
	if err != nil {
		return Entity{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "entity %d", re.EntityNumber)
	}
	e := Entity{
		ID:            EntityID(re.EntityNumber),
		Kind:          re.Name,
		Direction:     dir,
		DirectionType: dt,
		Recipe:        re.Recipe,
	}
	e.Position = k.Area(geom.Vec{X: re.Position.X, Y: re.Position.Y}, dir).Center()

	for sideKey, byColor := range re.Connections {
		side, err := strconv.Atoi(sideKey)
		if err != nil || side < 1 || side > 2 {
			return Entity{}, errors.New(errors.ErrCodeInvalidInput, "entity %d: bad connection side %q", re.EntityNumber, sideKey)
		}
		for colorKey, points := range byColor {
			color := Color(colorKey)
			if color != Red && color != Green {
				return Entity{}, errors.New(errors.ErrCodeInvalidInput, "entity %d: bad wire color %q", re.EntityNumber, colorKey)
			}
			for _, p := range points {
				otherSide := Side(p.CircuitID)
				if otherSide == 0 {
					otherSide = 1
				}
				e.Connections = e.Connections.add(Side(side), color, ConnectionPoint{Entity: EntityID(p.EntityID), Side: otherSide})
			}
		}
	}
	for _, n := range re.Neighbours {
		e.Connections = e.Connections.add(1, Copper, ConnectionPoint{Entity: EntityID(n), Side: 1})
	}
	return e, nil
}

// ToRaw exports the snapshot. Entities are ordered by id and tiles by row,
// then column.
func (v *View) ToRaw() Raw {
	raw := Raw{Entities: []RawEntity{}}
	for _, e := range v.Entities() {
		re := RawEntity{
			EntityNumber: uint64(e.ID),
			Name:         e.Kind,
			Position:     RawPosition{X: e.Position.X, Y: e.Position.Y},
			Direction:    int(e.Direction),
			Type:         e.DirectionType.String(),
			Recipe:       e.Recipe,
		}
		for _, r := range e.Connections.records() {
			if r.Color == Copper {
				re.Neighbours = append(re.Neighbours, uint64(r.Point.Entity))
				continue
			}
			if re.Connections == nil {
				re.Connections = make(map[string]map[string][]RawConnectionPoint)
			}
			sideKey := strconv.Itoa(int(r.Side))
			if re.Connections[sideKey] == nil {
				re.Connections[sideKey] = make(map[string][]RawConnectionPoint)
			}
			re.Connections[sideKey][string(r.Color)] = append(re.Connections[sideKey][string(r.Color)],
				RawConnectionPoint{EntityID: uint64(r.Point.Entity), CircuitID: int(r.Point.Side)})
		}
		raw.Entities = append(raw.Entities, re)
	}
	for _, t := range v.Tiles() {
		raw.Tiles = append(raw.Tiles, RawTile{
			Name:     t.Kind,
			Position: RawPosition{X: float64(t.Position.X), Y: float64(t.Position.Y)},
		})
	}
	return raw
}
