package catalog

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
)

//go:embed builtin.toml
var builtinTOML []byte

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Builtin returns the embedded default catalog. It panics if the embedded
// definitions are invalid, which the package tests rule out.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := Parse(builtinTOML, FormatTOML)
		if err != nil {
			panic("catalog: invalid builtin catalog: " + err.Error())
		}
		builtin = c
	})
	return builtin
}

// Format selects the catalog file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
}

// Load reads a catalog file. The format follows the file extension.
func Load(path string) (*Catalog, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read catalog %s", path)
	}
	return Parse(data, format)
}

// file is the on-disk shape shared by both formats.
type file struct {
	Kinds   []fileKind   `toml:"kind" yaml:"kinds"`
	Recipes []fileRecipe `toml:"recipe" yaml:"recipes"`
}

type fileKind struct {
	Name                   string     `toml:"name" yaml:"name"`
	Size                   []int      `toml:"size" yaml:"size"`
	Rotations              []string   `toml:"rotations" yaml:"rotations"`
	FastReplaceableGroup   string     `toml:"fast_replaceable_group" yaml:"fast_replaceable_group"`
	Roles                  []string   `toml:"roles" yaml:"roles"`
	PlaceableOffGrid       bool       `toml:"placeable_off_grid" yaml:"placeable_off_grid"`
	CraftsWithFluid        bool       `toml:"crafts_with_fluid" yaml:"crafts_with_fluid"`
	MaxUndergroundDistance int        `toml:"max_underground_distance" yaml:"max_underground_distance"`
	FluidPlugs             []filePlug `toml:"fluid_plugs" yaml:"fluid_plugs"`
	SupplyAreaDistance     float64    `toml:"supply_area_distance" yaml:"supply_area_distance"`
	WireReach              float64    `toml:"wire_reach" yaml:"wire_reach"`
	EffectRadius           int        `toml:"effect_radius" yaml:"effect_radius"`
}

type filePlug struct {
	Direction string `toml:"direction" yaml:"direction"`
	X         int    `toml:"x" yaml:"x"`
	Y         int    `toml:"y" yaml:"y"`
}

type fileRecipe struct {
	Name  string `toml:"name" yaml:"name"`
	Fluid bool   `toml:"fluid" yaml:"fluid"`
}

// Parse decodes catalog definitions in the given format.
func Parse(data []byte, format Format) (*Catalog, error) {
	var f file
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml catalog")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml catalog")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog format %q", format)
	}

	kinds := make([]Kind, 0, len(f.Kinds))
	for _, fk := range f.Kinds {
		k, err := fk.resolve()
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	recipes := make([]Recipe, 0, len(f.Recipes))
	for _, fr := range f.Recipes {
		recipes = append(recipes, Recipe{Name: fr.Name, Fluid: fr.Fluid})
	}
	return New(kinds, recipes)
}

// resolve turns names into directions and role bits once, at load time.
func (fk fileKind) resolve() (Kind, error) {
	k := Kind{
		Name:                   fk.Name,
		FastReplaceableGroup:   fk.FastReplaceableGroup,
		PlaceableOffGrid:       fk.PlaceableOffGrid,
		CraftsWithFluid:        fk.CraftsWithFluid,
		MaxUndergroundDistance: fk.MaxUndergroundDistance,
		SupplyAreaDistance:     fk.SupplyAreaDistance,
		WireReach:              fk.WireReach,
		EffectRadius:           fk.EffectRadius,
	}
	switch len(fk.Size) {
	case 0:
		k.Width, k.Height = 1, 1
	case 2:
		k.Width, k.Height = fk.Size[0], fk.Size[1]
	default:
		return Kind{}, errors.New(errors.ErrCodeInvalidInput, "kind %q: size must be [width, height]", fk.Name)
	}
	for _, name := range fk.Rotations {
		d, err := geom.ParseDirection(name)
		if err != nil {
			return Kind{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "kind %q", fk.Name)
		}
		k.Rotations = append(k.Rotations, d)
	}
	for _, name := range fk.Roles {
		r, err := ParseRole(name)
		if err != nil {
			return Kind{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "kind %q", fk.Name)
		}
		k.Roles |= r
	}
	if len(fk.FluidPlugs) > 0 {
		k.FluidPlugs = make(map[geom.Direction]geom.Point, len(fk.FluidPlugs))
		for _, p := range fk.FluidPlugs {
			d, err := geom.ParseDirection(p.Direction)
			if err != nil {
				return Kind{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "kind %q plug", fk.Name)
			}
			k.FluidPlugs[d] = geom.Pt(p.X, p.Y)
		}
	}
	return k, nil
}
