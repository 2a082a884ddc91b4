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

// Pipe router defaults.
const (
	DefaultPipeKind            = "pipe"
	DefaultUndergroundPipeKind = "pipe-to-ground"
	DefaultMinGap              = 1
	DefaultMaxTurns            = 2
	DefaultRetries             = 3
	DefaultMargin              = 10
)

// PipeOptions configures [Pipes].
type PipeOptions struct {
	PipeKind        string `json:"pipe_kind,omitempty" toml:"pipe_kind"`
	UndergroundKind string `json:"underground_kind,omitempty" toml:"underground_kind"`

	// MinGap is the fewest cells an underground pair must skip to replace a
	// straight run.
	MinGap int `json:"min_gap,omitempty" toml:"min_gap"`

	// MaxTurns caps the turns of paths joining pipe groups on the first
	// pass. Each retry allows two more.
	MaxTurns int `json:"max_turns,omitempty" toml:"max_turns"`
	Retries  int `json:"retries,omitempty" toml:"retries"`

	// Margin is how far outside the sources paths may wander.
	Margin int `json:"margin,omitempty" toml:"margin"`

	// NoUnderground keeps every pipe above ground.
	NoUnderground bool `json:"no_underground,omitempty" toml:"no_underground"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// SetDefaults fills zero values.
func (o *PipeOptions) SetDefaults() {
	if o.PipeKind == "" {
		o.PipeKind = DefaultPipeKind
	}
	if o.UndergroundKind == "" {
		o.UndergroundKind = DefaultUndergroundPipeKind
	}
	if o.MinGap == 0 {
		o.MinGap = DefaultMinGap
	}
	if o.MaxTurns == 0 {
		o.MaxTurns = DefaultMaxTurns
	}
	if o.Retries == 0 {
		o.Retries = DefaultRetries
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
}

// Validate checks the options against a catalog.
func (o *PipeOptions) Validate(cat *catalog.Catalog) error {
	if o.MinGap < 0 || o.MaxTurns < 0 || o.Retries < 0 || o.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pipe options must not be negative")
	}
	pipe, err := cat.Kind(o.PipeKind)
	if err != nil {
		return err
	}
	if pipe.Width != 1 || pipe.Height != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "pipe kind %q must be 1x1", o.PipeKind)
	}
	if o.NoUnderground {
		return nil
	}
	ug, err := cat.Kind(o.UndergroundKind)
	if err != nil {
		return err
	}
	if ug.Width != 1 || ug.Height != 1 || ug.MaxUndergroundDistance <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "underground kind %q must be 1x1 with an underground distance", o.UndergroundKind)
	}
	for _, d := range geom.Directions {
		if !ug.Allows(d) {
			return errors.New(errors.ErrCodeInvalidInput, "underground kind %q must face every direction", o.UndergroundKind)
		}
	}
	return nil
}

type fluidPlug struct {
	dir  geom.Direction // facing of the source
	cell geom.Point
	into geom.Direction // step from the plug cell into the source
}

type fluidSource struct {
	entity blueprint.Entity
	area   geom.Area
	plugs  []fluidPlug
	dir    geom.Direction
	fixed  bool
}

func (s *fluidSource) plugAt(p geom.Point) (fluidPlug, bool) {
	for _, pl := range s.plugs {
		if pl.cell == p {
			return pl, true
		}
	}
	return fluidPlug{}, false
}

func (s *fluidSource) plug() fluidPlug {
	for _, pl := range s.plugs {
		if pl.dir == s.dir {
			return pl
		}
	}
	return fluidPlug{}
}

// pipeLine is a straight pipe between plugs of two sources.
type pipeLine struct {
	a, b   int
	da, db geom.Direction
	cells  []geom.Point
	mid    geom.Vec
}

type pipeRouter struct {
	ctx  context.Context
	opts PipeOptions
	log  *log.Logger
	occ  *occupancy

	sources []*fluidSource
	parent  []int
	grouped []bool
	plugs   map[geom.Point][]int
	pipes   map[geom.Point]int // cell -> owning source
	bounds  geom.Area
	info    Info
}

// Pipes connects every fluid source (entities with the pumpjack role and
// fluid plugs) into one pipe network. Sources are turned so that their plug
// faces the network, and long straight runs go underground.
//
// With no sources the result is a NO_SOLUTION error. A single source needs
// no pipes and yields an empty result marked Trivial.
func Pipes(ctx context.Context, v *blueprint.View, opts PipeOptions) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(v.Catalog()); err != nil {
		return nil, err
	}
	start := time.Now()
	r := &pipeRouter{
		ctx:   ctx,
		opts:  opts,
		log:   loggerOr(opts.Logger),
		occ:   newOccupancy(v),
		plugs: make(map[geom.Point][]int),
		pipes: make(map[geom.Point]int),
		info:  Info{Generator: GeneratorPipes},
	}
	if err := r.collect(v); err != nil {
		return nil, err
	}
	if len(r.sources) == 1 {
		r.info.Trivial = true
		r.info.Duration = time.Since(start)
		return &Result{Requests: []Request{}, Info: r.info}, nil
	}

	lines := r.candidateLines()
	r.info.Candidates = len(lines)
	r.log.Debug("pipe candidates", "sources", len(r.sources), "lines", len(lines))
	if err := r.group(lines); err != nil {
		return nil, err
	}
	r.info.Groups = len(r.roots())
	if err := r.join(); err != nil {
		return nil, err
	}
	if err := r.attach(); err != nil {
		return nil, err
	}

	res := &Result{Requests: r.requests(v.Catalog())}
	for _, s := range r.sources {
		if s.dir != s.entity.Direction {
			res.Rotations = append(res.Rotations, Rotation{ID: s.entity.ID, Direction: s.dir})
		}
	}
	r.info.Placed = len(res.Requests)
	r.info.Rotated = len(res.Rotations)
	r.info.Duration = time.Since(start)
	res.Info = r.info
	r.log.Debug("pipes routed", "placed", r.info.Placed, "rotated", r.info.Rotated, "retries", r.info.Retries)
	return res, nil
}

func (r *pipeRouter) collect(v *blueprint.View) error {
	cat := v.Catalog()
	var all []geom.Area
	for _, e := range v.EntitiesWithRole(catalog.RolePumpjack) {
		k, _ := cat.Lookup(e.Kind)
		if len(k.FluidPlugs) == 0 {
			continue
		}
		s := &fluidSource{entity: e, area: e.Area(k), dir: e.Direction}
		dirs := k.Rotations
		if len(dirs) == 0 || !k.Square() {
			dirs = []geom.Direction{e.Direction}
		}
		base := e.Position.Cell()
		for _, d := range dirs {
			off, ok := k.Plug(d)
			if !ok {
				continue
			}
			cell := base.Add(off)
			into, ok := stepInto(cell, s.area)
			if !ok || !r.occ.free(cell) {
				continue
			}
			s.plugs = append(s.plugs, fluidPlug{dir: d, cell: cell, into: into})
		}
		if len(s.plugs) == 0 {
			return noSolution("fluid source %d has no free plug", e.ID)
		}
		sort.Slice(s.plugs, func(i, j int) bool { return s.plugs[i].dir < s.plugs[j].dir })
		r.sources = append(r.sources, s)
		all = append(all, s.area)
	}
	r.info.Targets = len(r.sources)
	if len(r.sources) == 0 {
		return noSolution("no fluid sources")
	}

	r.parent = make([]int, len(r.sources))
	r.grouped = make([]bool, len(r.sources))
	for i, s := range r.sources {
		r.parent[i] = i
		for _, pl := range s.plugs {
			r.plugs[pl.cell] = append(r.plugs[pl.cell], i)
		}
	}
	bounds := all[0]
	for _, a := range all[1:] {
		bounds = bounds.Union(a)
	}
	r.bounds = bounds.Expand(r.opts.Margin)
	return nil
}

func stepInto(cell geom.Point, a geom.Area) (geom.Direction, bool) {
	for _, d := range geom.Directions {
		if a.Contains(cell.Step(d)) {
			return d, true
		}
	}
	return 0, false
}

func (r *pipeRouter) find(i int) int {
	for r.parent[i] != i {
		r.parent[i] = r.parent[r.parent[i]]
		i = r.parent[i]
	}
	return i
}

func (r *pipeRouter) union(i, j int) {
	a, b := r.find(i), r.find(j)
	if a == b {
		return
	}
	if b < a {
		a, b = b, a
	}
	r.parent[b] = a
}

// roots returns the root of every group, ascending.
func (r *pipeRouter) roots() []int {
	var out []int
	for i := range r.sources {
		if r.grouped[i] && r.find(i) == i {
			out = append(out, i)
		}
	}
	return out
}

func (r *pipeRouter) fix(i int, d geom.Direction) {
	r.sources[i].dir = d
	r.sources[i].fixed = true
}

func (r *pipeRouter) lay(cells []geom.Point, owner int) {
	for _, c := range cells {
		if _, ok := r.pipes[c]; !ok {
			r.pipes[c] = owner
		}
	}
}

// candidateLines returns the straight lines between plugs of sources that
// are neighbors in the triangulation of the source centers.
func (r *pipeRouter) candidateLines() []pipeLine {
	centers := make([]geom.Vec, len(r.sources))
	for i, s := range r.sources {
		centers[i] = s.entity.Position
	}
	var lines []pipeLine
	for _, e := range geom.CandidateEdges(centers) {
		sa, sb := r.sources[e.A], r.sources[e.B]
		for _, pa := range sa.plugs {
			for _, pb := range sb.plugs {
				cells, ok := r.straight(pa.cell, pb.cell)
				if !ok {
					continue
				}
				ca, cb := pa.cell.Center(), pb.cell.Center()
				lines = append(lines, pipeLine{
					a: e.A, b: e.B, da: pa.dir, db: pb.dir,
					cells: cells,
					mid:   geom.Vec{X: (ca.X + cb.X) / 2, Y: (ca.Y + cb.Y) / 2},
				})
			}
		}
	}
	return lines
}

// straight returns the cells from p to q when they share a row or column
// and every cell between them is free.
func (r *pipeRouter) straight(p, q geom.Point) ([]geom.Point, bool) {
	if p.X != q.X && p.Y != q.Y {
		return nil, false
	}
	cells := []geom.Point{p}
	for c := p; c != q; {
		var step geom.Point
		switch {
		case q.X > c.X:
			step = geom.Pt(1, 0)
		case q.X < c.X:
			step = geom.Pt(-1, 0)
		case q.Y > c.Y:
			step = geom.Pt(0, 1)
		default:
			step = geom.Pt(0, -1)
		}
		c = c.Add(step)
		if !r.occ.free(c) {
			return nil, false
		}
		cells = append(cells, c)
	}
	return cells, true
}

func (r *pipeRouter) compatible(l pipeLine) bool {
	sa, sb := r.sources[l.a], r.sources[l.b]
	if (sa.fixed && sa.dir != l.da) || (sb.fixed && sb.dir != l.db) {
		return false
	}
	if r.find(l.a) == r.find(l.b) {
		return false
	}
	last := len(l.cells) - 1
	for i, c := range l.cells {
		if _, used := r.pipes[c]; !used {
			continue
		}
		if (i == 0 && sa.fixed) || (i == last && sb.fixed) {
			continue
		}
		return false
	}
	return true
}

// group picks lines greedily until none fits. Lines that touch an existing
// group come first, then lines nearer the centroid of all sources, then
// lines with fewer competitors, then shorter lines.
func (r *pipeRouter) group(lines []pipeLine) error {
	centers := make([]geom.Vec, len(r.sources))
	for i, s := range r.sources {
		centers[i] = s.entity.Position
	}
	centroid := geom.Centroid(centers)
	competing := make([]int, len(r.sources))

	alive := append([]pipeLine(nil), lines...)
	for {
		if err := canceled(r.ctx); err != nil {
			return err
		}
		kept := alive[:0]
		for _, l := range alive {
			if r.compatible(l) {
				kept = append(kept, l)
			}
		}
		alive = kept
		if len(alive) == 0 {
			return nil
		}

		clear(competing)
		for _, l := range alive {
			competing[l.a]++
			competing[l.b]++
		}
		touches := func(l pipeLine) bool { return r.sources[l.a].fixed || r.sources[l.b].fixed }
		better := func(x, y pipeLine) bool {
			if tx, ty := touches(x), touches(y); tx != ty {
				return tx
			}
			if dx, dy := geom.DistSq(x.mid, centroid), geom.DistSq(y.mid, centroid); dx != dy {
				return dx < dy
			}
			if cx, cy := competing[x.a]+competing[x.b], competing[y.a]+competing[y.b]; cx != cy {
				return cx < cy
			}
			if len(x.cells) != len(y.cells) {
				return len(x.cells) < len(y.cells)
			}
			if x.a != y.a {
				return x.a < y.a
			}
			if x.b != y.b {
				return x.b < y.b
			}
			if x.da != y.da {
				return x.da < y.da
			}
			return x.db < y.db
		}
		best := 0
		for i := 1; i < len(alive); i++ {
			if better(alive[i], alive[best]) {
				best = i
			}
		}
		l := alive[best]
		alive = append(alive[:best], alive[best+1:]...)

		r.fix(l.a, l.da)
		r.fix(l.b, l.db)
		r.grouped[l.a], r.grouped[l.b] = true, true
		r.lay(l.cells, l.a)
		r.union(l.a, l.b)
	}
}

func (r *pipeRouter) passable(p geom.Point) bool {
	if !r.occ.free(p) {
		return false
	}
	if _, ok := r.pipes[p]; ok {
		return false
	}
	for _, i := range r.plugs[p] {
		if !r.sources[i].fixed {
			return false
		}
	}
	return true
}

func (r *pipeRouter) sortedPipes() []geom.Point {
	cells := make([]geom.Point, 0, len(r.pipes))
	for c := range r.pipes {
		cells = append(cells, c)
	}
	geom.SortPoints(cells)
	return cells
}

// join connects the groups pairwise, cheapest path first. When no group
// can reach another within the turn cap, the cap is relaxed and the search
// retried.
func (r *pipeRouter) join() error {
	turns := r.opts.MaxTurns
	retries := 0
	for {
		if err := canceled(r.ctx); err != nil {
			return err
		}
		roots := r.roots()
		if len(roots) <= 1 {
			return nil
		}

		cells := r.sortedPipes()
		var best []geom.Point
		for _, root := range roots {
			var starts []geom.Point
			for _, c := range cells {
				if r.find(r.pipes[c]) == root {
					starts = append(starts, c)
				}
			}
			path, ok := geom.ShortestPath(geom.PathQuery{
				Starts: starts,
				Goal: func(p geom.Point) bool {
					o, ok := r.pipes[p]
					return ok && r.find(o) != root
				},
				Passable: r.passable,
				Bounds:   r.bounds,
				MaxTurns: turns,
				Done:     r.ctx.Done(),
			})
			if ok && (best == nil || len(path) < len(best)) {
				best = path
			}
		}

		if err := canceled(r.ctx); err != nil {
			return err
		}
		if best == nil {
			if retries == r.opts.Retries {
				return noSolution("%d pipe groups cannot be joined", len(roots))
			}
			retries++
			turns += 2
			r.info.Retries = retries
			r.log.Debug("relaxing turn cap", "groups", len(roots), "max_turns", turns)
			continue
		}
		from, to := r.pipes[best[0]], r.pipes[best[len(best)-1]]
		r.lay(best[1:len(best)-1], from)
		r.union(from, to)
	}
}

// attach routes every source that is not in a group to the network. With
// no groups at all, the first source seeds the network.
func (r *pipeRouter) attach() error {
	seed := -1
	if len(r.roots()) == 0 {
		seed = 0
		r.grouped[0] = true
	}
	for i, s := range r.sources {
		if r.grouped[i] {
			continue
		}
		if err := canceled(r.ctx); err != nil {
			return err
		}
		anchor := 0
		for j := range r.sources {
			if r.grouped[j] {
				anchor = j
				break
			}
		}
		target := r.find(anchor)
		starts := make([]geom.Point, len(s.plugs))
		for k, pl := range s.plugs {
			starts[k] = pl.cell
		}
		goal := func(p geom.Point) bool {
			if o, ok := r.pipes[p]; ok {
				return r.find(o) == target
			}
			if seed >= 0 && !r.sources[seed].fixed {
				_, ok := r.sources[seed].plugAt(p)
				return ok
			}
			return false
		}
		path, ok := geom.ShortestPath(geom.PathQuery{
			Starts:   starts,
			Goal:     goal,
			Passable: r.passable,
			Bounds:   r.bounds,
			MaxTurns: -1,
			Done:     r.ctx.Done(),
		})
		if err := canceled(r.ctx); err != nil {
			return err
		}
		if !ok {
			return noSolution("fluid source %d cannot reach the pipe network", s.entity.ID)
		}

		pl, _ := s.plugAt(path[0])
		r.fix(i, pl.dir)
		end := path[len(path)-1]
		if _, isPipe := r.pipes[end]; isPipe {
			r.lay(path[:len(path)-1], i)
		} else {
			sp, _ := r.sources[seed].plugAt(end)
			r.fix(seed, sp.dir)
			r.lay(path, i)
		}
		r.grouped[i] = true
		r.union(i, target)
	}
	return nil
}

// requests turns the pipe cells into placement requests, replacing straight
// runs with underground pairs.
func (r *pipeRouter) requests(cat *catalog.Catalog) []Request {
	cells := r.sortedPipes()
	into := make(map[geom.Point][]geom.Direction)
	for _, s := range r.sources {
		if s.fixed {
			pl := s.plug()
			into[pl.cell] = append(into[pl.cell], pl.into)
		}
	}
	connects := func(p geom.Point, d geom.Direction) bool {
		if _, ok := r.pipes[p.Step(d)]; ok {
			return true
		}
		for _, in := range into[p] {
			if in == d {
				return true
			}
		}
		return false
	}
	// straight reports whether p connects exactly along d's axis.
	straight := func(p geom.Point, d geom.Direction) bool {
		if _, ok := r.pipes[p]; !ok {
			return false
		}
		for _, e := range geom.Directions {
			want := e == d || e == d.Opposite()
			if connects(p, e) != want {
				return false
			}
		}
		return true
	}

	underground := make(map[geom.Point]Request)
	removed := make(map[geom.Point]bool)
	if !r.opts.NoUnderground {
		ug, _ := cat.Lookup(r.opts.UndergroundKind)
		maxSpan := ug.MaxUndergroundDistance + 1
		for _, d := range []geom.Direction{geom.East, geom.South} {
			for _, c := range cells {
				if !straight(c, d) || straight(c.Step(d.Opposite()), d) {
					continue
				}
				run := []geom.Point{c}
				for n := c.Step(d); straight(n, d); n = n.Step(d) {
					run = append(run, n)
				}
				for i := 0; i < len(run); {
					span := min(len(run)-1-i, maxSpan)
					if span-1 < r.opts.MinGap {
						break
					}
					entry, exit := run[i], run[i+span]
					underground[entry] = Request{
						Kind: r.opts.UndergroundKind, Position: entry.Center(),
						Direction: d.Opposite(), DirectionType: blueprint.DirectionInput,
					}
					underground[exit] = Request{
						Kind: r.opts.UndergroundKind, Position: exit.Center(),
						Direction: d, DirectionType: blueprint.DirectionOutput,
					}
					for _, gap := range run[i+1 : i+span] {
						removed[gap] = true
					}
					i += span + 1
				}
			}
		}
	}

	out := make([]Request, 0, len(cells))
	for _, c := range cells {
		if removed[c] {
			continue
		}
		if req, ok := underground[c]; ok {
			out = append(out, req)
			continue
		}
		out = append(out, Request{Kind: r.opts.PipeKind, Position: c.Center(), Direction: geom.North})
	}
	return out
}
