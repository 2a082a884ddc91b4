// Package catalog describes the entity kinds a blueprint may contain.
//
// A [Catalog] maps kind names to a [Kind]: footprint size, the directions the
// kind may face, its fast-replaceable group, role flags used by the layout
// generators, fluid plugs and the reach of poles and beacons. Recipes are
// listed separately so assemblers can tell whether their recipe needs fluid.
//
// Catalogs are read from TOML or YAML files with [Load] or [Parse]. [Builtin]
// returns the embedded default catalog. A loaded catalog is immutable and
// safe for concurrent use.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// Role is a bit set of generator-relevant capabilities of a kind.
type Role uint32

const (
	// RolePumpjack marks fluid sources the pipe router connects.
	RolePumpjack Role = 1 << iota
	// RoleNeedsPower marks consumers the pole router must cover.
	RoleNeedsPower
	// RoleModuleHost marks entities that benefit from beacons.
	RoleModuleHost
	// RolePole marks electric poles.
	RolePole
	// RoleBeacon marks beacons.
	RoleBeacon
	// RoleGate marks gates, which may cross perpendicular straight rails.
	RoleGate
	// RoleStraightRail marks straight rails.
	RoleStraightRail
	// RoleCurvedRail marks curved rails.
	RoleCurvedRail
	// RolePipe marks above-ground pipes.
	RolePipe
	// RoleUndergroundPipe marks pipe-to-ground entities.
	RoleUndergroundPipe
)

var roleNames = map[string]Role{
	"pumpjack":         RolePumpjack,
	"needs-power":      RoleNeedsPower,
	"module-host":      RoleModuleHost,
	"pole":             RolePole,
	"beacon":           RoleBeacon,
	"gate":             RoleGate,
	"straight-rail":    RoleStraightRail,
	"curved-rail":      RoleCurvedRail,
	"pipe":             RolePipe,
	"underground-pipe": RoleUndergroundPipe,
}

// Has reports whether r includes every bit of o.
func (r Role) Has(o Role) bool { return r&o == o && o != 0 }

// Names lists the role names in r, sorted.
func (r Role) Names() []string {
	var names []string
	for name, bit := range roleNames {
		if r.Has(bit) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// String lists the role names in a stable order.
func (r Role) String() string { return fmt.Sprint(r.Names()) }

// ParseRole resolves a role name.
func ParseRole(name string) (Role, error) {
	r, ok := roleNames[name]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown role %q", name)
	}
	return r, nil
}

// Kind describes one entity kind.
type Kind struct {
	Name string

	// Width and Height are the footprint when facing north.
	Width, Height int

	// Rotations are the directions the kind may face, in the order rotation
	// cycles through them. Empty means the kind cannot be rotated.
	Rotations []geom.Direction

	FastReplaceableGroup string
	Roles                Role
	PlaceableOffGrid     bool

	// CraftsWithFluid marks assemblers whose orientation only matters for
	// fluid recipes.
	CraftsWithFluid bool

	// MaxUndergroundDistance is the longest gap an underground pair may
	// bridge, in cells.
	MaxUndergroundDistance int

	// FluidPlugs are the plug cells per facing, relative to the cell that
	// contains the entity center.
	FluidPlugs map[geom.Direction]geom.Point

	// SupplyAreaDistance is the half-size of a pole's supply square.
	SupplyAreaDistance float64
	// WireReach is the longest copper wire a pole can hold.
	WireReach float64
	// EffectRadius is how many cells past its footprint a beacon reaches.
	EffectRadius int
}

// Size returns the footprint when facing d. Width and height swap for east
// and west.
func (k *Kind) Size(d geom.Direction) (w, h int) {
	if d == geom.East || d == geom.West {
		return k.Height, k.Width
	}
	return k.Width, k.Height
}

// Area returns the cells covered when centered at pos facing d.
func (k *Kind) Area(pos geom.Vec, d geom.Direction) geom.Area {
	w, h := k.Size(d)
	return geom.AreaAt(pos, w, h)
}

// Square reports whether the footprint is the same in every direction.
func (k *Kind) Square() bool { return k.Width == k.Height }

// CanRotate reports whether the kind has a rotation set.
func (k *Kind) CanRotate() bool { return len(k.Rotations) > 0 }

// NextDirection returns the direction after d in the rotation set, or
// before it when ccw is set. A direction outside the set rotates to the
// first entry. ok is false when the kind cannot rotate.
func (k *Kind) NextDirection(d geom.Direction, ccw bool) (next geom.Direction, ok bool) {
	n := len(k.Rotations)
	if n == 0 {
		return d, false
	}
	for i, r := range k.Rotations {
		if r != d {
			continue
		}
		if ccw {
			return k.Rotations[(i+n-1)%n], true
		}
		return k.Rotations[(i+1)%n], true
	}
	return k.Rotations[0], true
}

// Allows reports whether the kind may face d.
func (k *Kind) Allows(d geom.Direction) bool {
	if len(k.Rotations) == 0 {
		return d == geom.North
	}
	for _, r := range k.Rotations {
		if r == d {
			return true
		}
	}
	return false
}

// Plug returns the fluid plug offset when facing d.
func (k *Kind) Plug(d geom.Direction) (geom.Point, bool) {
	p, ok := k.FluidPlugs[d]
	return p, ok
}

// Recipe describes one recipe.
type Recipe struct {
	Name  string
	Fluid bool
}

// Catalog is an immutable set of kinds and recipes.
type Catalog struct {
	kinds   map[string]*Kind
	recipes map[string]Recipe
	digest  string
}

// New builds a catalog from kinds and recipes. Names must be unique.
func New(kinds []Kind, recipes []Recipe) (*Catalog, error) {
	c := &Catalog{
		kinds:   make(map[string]*Kind, len(kinds)),
		recipes: make(map[string]Recipe, len(recipes)),
	}
	for i := range kinds {
		k := kinds[i]
		if err := errors.ValidateKindName(k.Name); err != nil {
			return nil, err
		}
		if k.Width <= 0 || k.Height <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "kind %q: size must be positive", k.Name)
		}
		if _, dup := c.kinds[k.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "kind %q defined twice", k.Name)
		}
		for _, d := range k.Rotations {
			if !d.Valid() {
				return nil, errors.New(errors.ErrCodeInvalidInput, "kind %q: invalid rotation %d", k.Name, d)
			}
		}
		c.kinds[k.Name] = &k
	}
	for _, r := range recipes {
		if err := errors.ValidateKindName(r.Name); err != nil {
			return nil, err
		}
		if _, dup := c.recipes[r.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "recipe %q defined twice", r.Name)
		}
		c.recipes[r.Name] = r
	}

	h := sha256.New()
	for _, k := range c.Kinds() {
		fmt.Fprintf(h, "%+v\n", *k)
	}
	for _, r := range c.Recipes() {
		fmt.Fprintf(h, "%+v\n", r)
	}
	c.digest = hex.EncodeToString(h.Sum(nil))
	return c, nil
}

// Kind returns the named kind, or an UNKNOWN_KIND error.
func (c *Catalog) Kind(name string) (*Kind, error) {
	k, ok := c.kinds[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownKind, "unknown kind %q", name)
	}
	return k, nil
}

// Lookup returns the named kind and whether it exists.
func (c *Catalog) Lookup(name string) (*Kind, bool) {
	k, ok := c.kinds[name]
	return k, ok
}

// Recipe returns the named recipe and whether it exists.
func (c *Catalog) Recipe(name string) (Recipe, bool) {
	r, ok := c.recipes[name]
	return r, ok
}

// Kinds returns every kind sorted by name.
func (c *Catalog) Kinds() []*Kind {
	out := make([]*Kind, 0, len(c.kinds))
	for _, k := range c.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Recipes returns every recipe sorted by name.
func (c *Catalog) Recipes() []Recipe {
	out := make([]Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WithRole returns the kinds carrying role, sorted by name.
func (c *Catalog) WithRole(role Role) []*Kind {
	var out []*Kind
	for _, k := range c.Kinds() {
		if k.Roles.Has(role) {
			out = append(out, k)
		}
	}
	return out
}

// Digest is a content hash of the catalog, stable across loads of the same
// definitions.
func (c *Catalog) Digest() string { return c.digest }
