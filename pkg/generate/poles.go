package generate

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// DefaultPoleKind is the pole placed by [Poles].
const DefaultPoleKind = "medium-electric-pole"

// PoleOptions configures [Poles].
type PoleOptions struct {
	Kind string `json:"kind,omitempty" toml:"kind"`

	// IgnoreExisting powers every consumer, even those already inside the
	// supply area of a pole.
	IgnoreExisting bool `json:"ignore_existing,omitempty" toml:"ignore_existing"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// SetDefaults fills zero values.
func (o *PoleOptions) SetDefaults() {
	if o.Kind == "" {
		o.Kind = DefaultPoleKind
	}
}

// Validate checks the options against a catalog.
func (o *PoleOptions) Validate(cat *catalog.Catalog) error {
	k, err := cat.Kind(o.Kind)
	if err != nil {
		return err
	}
	if !k.Roles.Has(catalog.RolePole) || k.SupplyAreaDistance <= 0 || k.WireReach <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "kind %q is not a pole with supply area and wire reach", o.Kind)
	}
	return nil
}

type poleCandidate struct {
	area   geom.Area
	center geom.Vec
	powers []int
	spread float64 // distance to the centroid of powered consumers
}

type polePlacer struct {
	ctx       context.Context
	kind      *catalog.Kind
	log       *log.Logger
	occ       *occupancy
	consumers []blueprint.Entity
	areas     []geom.Area
	powered   []bool
	poles     []poleCandidate
	links     map[[2]int]struct{}
	info      Info
}

// Poles places electric poles so that every power consumer lies in a supply
// area, then wires the poles into one network.
//
// Candidates are scored by how many unpowered consumers they reach, then by
// closeness to the centroid of those consumers. After each pick, candidates
// that overlap it or no longer power anything are dropped. Poles within
// wire reach are linked along triangulation edges, and separate groups are
// bridged with extra poles.
func Poles(ctx context.Context, v *blueprint.View, opts PoleOptions) (*Result, error) {
	opts.SetDefaults()
	cat := v.Catalog()
	if err := opts.Validate(cat); err != nil {
		return nil, err
	}
	start := time.Now()
	k, _ := cat.Lookup(opts.Kind)
	p := &polePlacer{
		ctx:   ctx,
		kind:  k,
		log:   loggerOr(opts.Logger),
		occ:   newOccupancy(v),
		links: make(map[[2]int]struct{}),
		info:  Info{Generator: GeneratorPoles},
	}

	for _, e := range v.EntitiesWithRole(catalog.RoleNeedsPower) {
		ek, _ := cat.Lookup(e.Kind)
		if ek.Roles.Has(catalog.RolePole) {
			continue
		}
		p.consumers = append(p.consumers, e)
		p.areas = append(p.areas, e.Area(ek))
	}
	p.info.Targets = len(p.consumers)
	if len(p.consumers) == 0 {
		return nil, noSolution("no power consumers")
	}
	p.powered = make([]bool, len(p.consumers))
	if !opts.IgnoreExisting {
		for _, pole := range v.EntitiesWithRole(catalog.RolePole) {
			pk, _ := cat.Lookup(pole.Kind)
			supply := geom.SquareAround(pole.Position, pk.SupplyAreaDistance)
			for i, a := range p.areas {
				if a.Intersects(supply) {
					p.powered[i] = true
				}
			}
		}
	}
	if p.unpowered() == 0 {
		p.info.Trivial = true
		p.info.Duration = time.Since(start)
		return &Result{Requests: []Request{}, Info: p.info}, nil
	}

	if err := p.place(); err != nil {
		return nil, err
	}
	if len(p.poles) == 0 {
		return nil, noSolution("no room for poles near %d consumers", p.unpowered())
	}
	p.info.Unserved = p.unpowered()
	if err := p.connect(); err != nil {
		return nil, err
	}

	res := &Result{Requests: make([]Request, len(p.poles))}
	for i, c := range p.poles {
		res.Requests[i] = Request{Kind: opts.Kind, Position: c.center, Direction: geom.North}
	}
	for l := range p.links {
		res.Links = append(res.Links, l)
	}
	sortLinks(res.Links)
	p.info.Placed = len(res.Requests)
	p.info.Links = len(res.Links)
	p.info.Duration = time.Since(start)
	res.Info = p.info
	p.log.Debug("poles placed", "poles", p.info.Placed, "links", p.info.Links, "groups", p.info.Groups, "unserved", p.info.Unserved)
	return res, nil
}

func (p *polePlacer) unpowered() int {
	n := 0
	for _, ok := range p.powered {
		if !ok {
			n++
		}
	}
	return n
}

func (p *polePlacer) supply(center geom.Vec) geom.Area {
	return geom.SquareAround(center, p.kind.SupplyAreaDistance)
}

// score recomputes which unpowered consumers c reaches.
func (p *polePlacer) score(c *poleCandidate) {
	supply := p.supply(c.center)
	c.powers = c.powers[:0]
	var centers []geom.Vec
	for i, a := range p.areas {
		if !p.powered[i] && a.Intersects(supply) {
			c.powers = append(c.powers, i)
			centers = append(centers, p.consumers[i].Position)
		}
	}
	if len(centers) > 0 {
		c.spread = geom.Dist(c.center, geom.Centroid(centers))
	}
}

func (p *polePlacer) place() error {
	w, h := p.kind.Size(geom.North)
	side := int(math.Round(2 * p.kind.SupplyAreaDistance))
	var targets []geom.Area
	for i, a := range p.areas {
		if !p.powered[i] {
			targets = append(targets, a)
		}
	}

	var cands []poleCandidate
	for _, a := range validPositions(p.occ, targets, side/2+max(w, h), w, h) {
		c := poleCandidate{area: a, center: a.Center()}
		p.score(&c)
		if len(c.powers) > 0 {
			cands = append(cands, c)
		}
	}
	p.info.Candidates = len(cands)

	better := func(x, y *poleCandidate) bool {
		if len(x.powers) != len(y.powers) {
			return len(x.powers) > len(y.powers)
		}
		if x.spread != y.spread {
			return x.spread < y.spread
		}
		return lessArea(x.area, y.area)
	}
	for len(cands) > 0 {
		if err := canceled(p.ctx); err != nil {
			return err
		}
		best := 0
		for i := 1; i < len(cands); i++ {
			if better(&cands[i], &cands[best]) {
				best = i
			}
		}
		chosen := cands[best]
		chosen.powers = append([]int(nil), chosen.powers...)
		p.poles = append(p.poles, chosen)
		p.occ.claim(chosen.area)
		for _, i := range chosen.powers {
			p.powered[i] = true
		}

		kept := cands[:0]
		for _, c := range cands {
			if c.area.Intersects(chosen.area) {
				continue
			}
			p.score(&c)
			if len(c.powers) > 0 {
				kept = append(kept, c)
			}
		}
		cands = kept
	}
	return nil
}

func (p *polePlacer) inReach(a, b geom.Vec) bool {
	return geom.Dist(a, b) <= p.kind.WireReach+1e-9
}

func (p *polePlacer) link(a, b int) {
	if a > b {
		a, b = b, a
	}
	p.links[[2]int{a, b}] = struct{}{}
}

// components returns the connected groups of poles, each sorted, ordered
// by their first pole.
func (p *polePlacer) components() [][]int {
	g := simple.NewUndirectedGraph()
	for i := range p.poles {
		g.AddNode(simple.Node(i))
	}
	for l := range p.links {
		g.SetEdge(g.NewEdge(simple.Node(l[0]), simple.Node(l[1])))
	}
	var out [][]int
	for _, cc := range topo.ConnectedComponents(g) {
		ids := make([]int, len(cc))
		for i, n := range cc {
			ids[i] = int(n.ID())
		}
		sort.Ints(ids)
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func (p *polePlacer) connect() error {
	centers := make([]geom.Vec, len(p.poles))
	for i, c := range p.poles {
		centers[i] = c.center
	}
	for _, e := range geom.CandidateEdges(centers) {
		if p.inReach(centers[e.A], centers[e.B]) {
			p.link(e.A, e.B)
		}
	}

	limit := 4*len(p.poles) + 64
	for range limit {
		if err := canceled(p.ctx); err != nil {
			return err
		}
		comps := p.components()
		p.info.Groups = len(comps)
		if len(comps) <= 1 || !p.bridge(comps) {
			return nil
		}
	}
	p.info.Groups = len(p.components())
	return nil
}

// bridge adds one pole between the two closest groups. It returns false
// when no pole can be placed.
func (p *polePlacer) bridge(comps [][]int) bool {
	ga, gb, a, b := -1, -1, -1, -1
	best := math.Inf(1)
	for i := range comps {
		for j := i + 1; j < len(comps); j++ {
			for _, x := range comps[i] {
				for _, y := range comps[j] {
					if d := geom.Dist(p.poles[x].center, p.poles[y].center); d < best {
						best, ga, gb, a, b = d, i, j, x, y
					}
				}
			}
		}
	}
	if a < 0 {
		return false
	}
	reach := p.kind.WireReach
	w, h := p.kind.Size(geom.North)
	ca, cb := p.poles[a].center, p.poles[b].center
	box := p.poles[a].area.Union(p.poles[b].area).Expand(int(math.Ceil(reach)))

	nearest := func(c geom.Vec, group []int) int {
		n, nd := -1, math.Inf(1)
		for _, i := range group {
			if d := geom.Dist(c, p.poles[i].center); d <= reach+1e-9 && d < nd {
				n, nd = i, d
			}
		}
		return n
	}

	if best <= 2*reach {
		centA := p.centroid(comps[ga])
		centB := p.centroid(comps[gb])
		var pick *poleCandidate
		var pickScore float64
		var na, nb int
		for _, cell := range box.Cells() {
			area := geom.Area{X: cell.X, Y: cell.Y, W: w, H: h}
			c := area.Center()
			ia, ib := nearest(c, comps[ga]), nearest(c, comps[gb])
			if ia < 0 || ib < 0 || !p.occ.freeArea(area) {
				continue
			}
			s := geom.Dist(c, centA) + geom.Dist(c, centB)
			if pick == nil || s < pickScore || (s == pickScore && lessArea(area, pick.area)) {
				pick, pickScore, na, nb = &poleCandidate{area: area, center: c}, s, ia, ib
			}
		}
		if pick != nil {
			n := p.add(*pick)
			p.link(n, na)
			p.link(n, nb)
			return true
		}
	}

	// Too far for one pole: step from a towards b.
	var pick *poleCandidate
	var pickDist float64
	for _, cell := range p.poles[a].area.Expand(int(math.Ceil(reach))).Cells() {
		area := geom.Area{X: cell.X, Y: cell.Y, W: w, H: h}
		c := area.Center()
		if !p.inReach(c, ca) || !p.occ.freeArea(area) {
			continue
		}
		d := geom.Dist(c, cb)
		if d >= best {
			continue
		}
		if pick == nil || d < pickDist || (d == pickDist && lessArea(area, pick.area)) {
			pick, pickDist = &poleCandidate{area: area, center: c}, d
		}
	}
	if pick == nil {
		p.log.Warn("pole groups cannot be bridged", "from", ca, "to", cb)
		return false
	}
	n := p.add(*pick)
	p.link(n, a)
	if p.inReach(pick.center, cb) {
		p.link(n, b)
	}
	return true
}

func (p *polePlacer) add(c poleCandidate) int {
	p.poles = append(p.poles, c)
	p.occ.claim(c.area)
	return len(p.poles) - 1
}

func (p *polePlacer) centroid(group []int) geom.Vec {
	vs := make([]geom.Vec, len(group))
	for i, g := range group {
		vs[i] = p.poles[g].center
	}
	return geom.Centroid(vs)
}
