package generate

import (
	"time"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// Request asks for a new entity.
type Request struct {
	Kind          string                  `json:"kind"`
	Position      geom.Vec                `json:"position"`
	Direction     geom.Direction          `json:"direction"`
	DirectionType blueprint.DirectionType `json:"direction_type,omitempty"`
}

// Rotation asks an existing entity to face Direction.
type Rotation struct {
	ID        blueprint.EntityID `json:"id"`
	Direction geom.Direction     `json:"direction"`
}

// Info summarizes a generator run.
type Info struct {
	Generator  string        `json:"generator"`
	Targets    int           `json:"targets"`
	Candidates int           `json:"candidates"`
	Placed     int           `json:"placed"`
	Rotated    int           `json:"rotated,omitempty"`
	Links      int           `json:"links,omitempty"`
	Groups     int           `json:"groups,omitempty"`
	Retries    int           `json:"retries,omitempty"`
	Unserved   int           `json:"unserved,omitempty"`
	Trivial    bool          `json:"trivial,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Result is the output of a generator.
//
// Links are copper wires between requests, by index into Requests.
type Result struct {
	Requests  []Request  `json:"requests"`
	Rotations []Rotation `json:"rotations,omitempty"`
	Links     [][2]int   `json:"links,omitempty"`
	Info      Info       `json:"info"`
}

// Empty reports whether applying the result would change nothing.
func (r *Result) Empty() bool {
	return len(r.Requests) == 0 && len(r.Rotations) == 0 && len(r.Links) == 0
}

// Batch converts the result into a blueprint batch.
func (r *Result) Batch() blueprint.Batch {
	var b blueprint.Batch
	for _, rot := range r.Rotations {
		b.Turn = append(b.Turn, blueprint.Turn{ID: rot.ID, Direction: rot.Direction})
	}
	for _, req := range r.Requests {
		b.Place = append(b.Place, blueprint.Placement{
			Kind:          req.Kind,
			Position:      req.Position,
			Direction:     req.Direction,
			DirectionType: req.DirectionType,
		})
	}
	for _, l := range r.Links {
		b.Wire = append(b.Wire, blueprint.Wire{
			From:  blueprint.Placed(l[0]),
			To:    blueprint.Placed(l[1]),
			Color: blueprint.Copper,
		})
	}
	return b
}

// ApplyTo submits the result to bp as a single history entry and returns
// the ids of the placed entities in request order.
func (r *Result) ApplyTo(bp *blueprint.Blueprint) ([]blueprint.EntityID, error) {
	return bp.Apply(r.Batch())
}
