package generate

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// Beacon placer defaults.
const (
	DefaultBeaconKind  = "beacon"
	DefaultMinAffected = 1
)

// BeaconOptions configures [Beacons].
type BeaconOptions struct {
	Kind string `json:"kind,omitempty" toml:"kind"`

	// MinAffected stops placement once the best remaining beacon would
	// reach fewer module hosts.
	MinAffected int `json:"min_affected,omitempty" toml:"min_affected"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// SetDefaults fills zero values.
func (o *BeaconOptions) SetDefaults() {
	if o.Kind == "" {
		o.Kind = DefaultBeaconKind
	}
	if o.MinAffected == 0 {
		o.MinAffected = DefaultMinAffected
	}
}

// Validate checks the options against a catalog.
func (o *BeaconOptions) Validate(cat *catalog.Catalog) error {
	if o.MinAffected < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "min_affected must be at least 1")
	}
	k, err := cat.Kind(o.Kind)
	if err != nil {
		return err
	}
	if !k.Roles.Has(catalog.RoleBeacon) || k.EffectRadius <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "kind %q is not a beacon with an effect radius", o.Kind)
	}
	return nil
}

type beaconCandidate struct {
	area     geom.Area
	affected int
	distance float64 // average distance to the affected hosts
	overlaps int     // candidates sharing a cell
}

// Beacons places non-overlapping beacons around module hosts.
//
// Every free area of the beacon's size near a host is a candidate. The
// candidates are ranked by affected hosts, then, among single-host
// candidates, by distance from that host (farthest first), then by how few
// other candidates they overlap, then by position. Picking in rank order
// and discarding every candidate that shares a cell with a pick is the
// greedy selection; it stops at the first candidate below MinAffected.
func Beacons(ctx context.Context, v *blueprint.View, opts BeaconOptions) (*Result, error) {
	opts.SetDefaults()
	cat := v.Catalog()
	if err := opts.Validate(cat); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := loggerOr(opts.Logger)
	k, _ := cat.Lookup(opts.Kind)
	w, h := k.Size(geom.North)
	radius := k.EffectRadius

	var hosts []blueprint.Entity
	var areas []geom.Area
	for _, e := range v.EntitiesWithRole(catalog.RoleModuleHost) {
		hk, _ := cat.Lookup(e.Kind)
		if hk.Roles.Has(catalog.RoleBeacon) {
			continue
		}
		hosts = append(hosts, e)
		areas = append(areas, e.Area(hk))
	}
	info := Info{Generator: GeneratorBeacons, Targets: len(hosts)}
	if len(hosts) == 0 {
		return nil, noSolution("no module hosts")
	}

	var cands []beaconCandidate
	for _, a := range validPositions(newOccupancy(v), areas, radius+max(w, h), w, h) {
		if err := canceled(ctx); err != nil {
			return nil, err
		}
		reach := a.Expand(radius)
		c := beaconCandidate{area: a}
		var total float64
		for i, ha := range areas {
			if reach.Intersects(ha) {
				c.affected++
				total += geom.Dist(a.Center(), hosts[i].Position)
			}
		}
		if c.affected == 0 {
			continue
		}
		c.distance = total / float64(c.affected)
		cands = append(cands, c)
	}
	info.Candidates = len(cands)

	byCell := make(map[geom.Point][]int)
	for i, c := range cands {
		for _, p := range c.area.Cells() {
			byCell[p] = append(byCell[p], i)
		}
	}
	for i := range cands {
		seen := make(map[int]struct{})
		for _, p := range cands[i].area.Cells() {
			for _, j := range byCell[p] {
				if j != i {
					seen[j] = struct{}{}
				}
			}
		}
		cands[i].overlaps = len(seen)
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		x, y := cands[order[i]], cands[order[j]]
		if x.affected != y.affected {
			return x.affected > y.affected
		}
		if x.affected == 1 && x.distance != y.distance {
			return x.distance > y.distance
		}
		if x.overlaps != y.overlaps {
			return x.overlaps < y.overlaps
		}
		return lessArea(x.area, y.area)
	})

	removed := make([]bool, len(cands))
	res := &Result{Requests: []Request{}}
	for _, i := range order {
		if removed[i] {
			continue
		}
		c := cands[i]
		if c.affected < opts.MinAffected {
			break
		}
		res.Requests = append(res.Requests, Request{Kind: opts.Kind, Position: c.area.Center(), Direction: geom.North})
		for _, p := range c.area.Cells() {
			for _, j := range byCell[p] {
				removed[j] = true
			}
		}
	}
	if len(res.Requests) == 0 {
		return nil, noSolution("no room for beacons near %d module hosts", len(hosts))
	}

	info.Placed = len(res.Requests)
	info.Duration = time.Since(start)
	res.Info = info
	logger.Debug("beacons placed", "beacons", info.Placed, "candidates", info.Candidates)
	return res, nil
}
