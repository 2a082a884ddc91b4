package generate

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
	"github.com/matzehuels/gridplan/pkg/observability"
)

// Generator names.
const (
	GeneratorPipes   = "pipes"
	GeneratorPoles   = "poles"
	GeneratorBeacons = "beacons"
)

// Names lists every generator.
var Names = []string{GeneratorPipes, GeneratorPoles, GeneratorBeacons}

// Options bundles the options of every generator, so a single value can be
// loaded from configuration and hashed for caching.
type Options struct {
	Pipes   PipeOptions   `json:"pipes" toml:"pipes"`
	Poles   PoleOptions   `json:"poles" toml:"poles"`
	Beacons BeaconOptions `json:"beacons" toml:"beacons"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// SetDefaults fills zero values of every generator's options.
func (o *Options) SetDefaults() {
	o.Pipes.SetDefaults()
	o.Poles.SetDefaults()
	o.Beacons.SetDefaults()
}

// ValidateName checks that name is a known generator.
func ValidateName(name string) error {
	for _, n := range Names {
		if n == name {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown generator %q (must be one of: pipes, poles, beacons)", name)
}

// RequirePositive rejects an explicitly set count option below 1. Zero
// selects the default in every options struct, so it cannot be requested.
func RequirePositive(name string, n int) error {
	if n < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "%s must be at least 1, got %d", name, n)
	}
	return nil
}

// Run executes the named generator against v.
func Run(ctx context.Context, name string, v *blueprint.View, opts Options) (*Result, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	hooks := observability.Generator()
	hooks.OnGenerateStart(ctx, name, v.Len())
	start := time.Now()

	var (
		res *Result
		err error
	)
	switch name {
	case GeneratorPipes:
		o := opts.Pipes
		if o.Logger == nil {
			o.Logger = opts.Logger
		}
		res, err = Pipes(ctx, v, o)
	case GeneratorPoles:
		o := opts.Poles
		if o.Logger == nil {
			o.Logger = opts.Logger
		}
		res, err = Poles(ctx, v, o)
	case GeneratorBeacons:
		o := opts.Beacons
		if o.Logger == nil {
			o.Logger = opts.Logger
		}
		res, err = Beacons(ctx, v, o)
	}

	placed := 0
	if res != nil {
		placed = len(res.Requests)
	}
	hooks.OnGenerateComplete(ctx, name, placed, time.Since(start), err)
	return res, err
}

func loggerOr(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

func noSolution(format string, args ...any) error {
	return errors.New(errors.ErrCodeNoSolution, format, args...)
}

func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "generation canceled")
	}
	return nil
}

// occupancy answers free-cell queries against a snapshot plus the cells
// claimed by a generator run.
type occupancy struct {
	view  *blueprint.View
	taken map[geom.Point]struct{}
}

func newOccupancy(v *blueprint.View) *occupancy {
	return &occupancy{view: v, taken: make(map[geom.Point]struct{})}
}

func (o *occupancy) free(p geom.Point) bool {
	if _, ok := o.taken[p]; ok {
		return false
	}
	return o.view.Free(p)
}

func (o *occupancy) freeArea(a geom.Area) bool {
	for _, p := range a.Cells() {
		if !o.free(p) {
			return false
		}
	}
	return true
}

func (o *occupancy) claim(a geom.Area) {
	for _, p := range a.Cells() {
		o.taken[p] = struct{}{}
	}
}

// searchCells returns the cells within radius of any of the areas, in row
// order.
func searchCells(areas []geom.Area, radius int) []geom.Point {
	var cells []geom.Point
	for _, a := range areas {
		cells = append(cells, a.Expand(radius).Cells()...)
	}
	return geom.Dedup(cells)
}

// validPositions returns the top-left cells of every w×h area within radius
// of the targets whose cells are all free.
func validPositions(occ *occupancy, targets []geom.Area, radius, w, h int) []geom.Area {
	var out []geom.Area
	for _, p := range searchCells(targets, radius) {
		a := geom.Area{X: p.X, Y: p.Y, W: w, H: h}
		if occ.freeArea(a) {
			out = append(out, a)
		}
	}
	return out
}

func lessArea(a, b geom.Area) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

func sortLinks(links [][2]int) {
	for i, l := range links {
		if l[0] > l[1] {
			links[i] = [2]int{l[1], l[0]}
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i][0] != links[j][0] {
			return links[i][0] < links[j][0]
		}
		return links[i][1] < links[j][1]
	})
}
