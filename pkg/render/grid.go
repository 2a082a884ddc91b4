package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// Preview characters for cells that hold no single entity.
const (
	GlyphEmpty   = '.'
	GlyphTile    = ':'
	GlyphOverlap = '+'
)

// GridOptions configures [Grid].
type GridOptions struct {
	// Area is the window to draw. The zero area means the blueprint bounds.
	Area geom.Area

	// Color styles glyphs by role with ANSI colors.
	Color bool

	// Cursor, when set, is drawn reversed. Requires Color.
	Cursor *geom.Point

	// Selected entity cells are drawn bold. Requires Color.
	Selected blueprint.EntityID
}

var (
	styleEmpty    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleTile     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	styleOverlap  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleFluid    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	stylePower    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleBeacon   = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	styleRail     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleMachine  = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	styleCursor   = lipgloss.NewStyle().Reverse(true)
	styleSelected = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Glyph returns the preview character of an entity.
func Glyph(k *catalog.Kind, e blueprint.Entity) rune {
	switch {
	case k == nil:
		return '?'
	case k.Roles.Has(catalog.RoleUndergroundPipe):
		return []rune("^>v<")[e.Direction.Index()]
	case k.Roles.Has(catalog.RolePipe):
		return '='
	case k.Roles.Has(catalog.RolePole):
		return 'o'
	case k.Roles.Has(catalog.RoleBeacon):
		return 'B'
	case k.Roles.Has(catalog.RolePumpjack):
		return 'P'
	case k.Roles.Has(catalog.RoleGate):
		return 'G'
	case k.Roles.Has(catalog.RoleStraightRail):
		return '#'
	case k.Roles.Has(catalog.RoleCurvedRail):
		return '%'
	}
	for _, r := range k.Name {
		if unicode.IsLetter(r) {
			return unicode.ToUpper(r)
		}
	}
	return '?'
}

func glyphStyle(k *catalog.Kind) lipgloss.Style {
	switch {
	case k == nil:
		return styleOverlap
	case k.Roles.Has(catalog.RolePipe), k.Roles.Has(catalog.RoleUndergroundPipe), k.Roles.Has(catalog.RolePumpjack):
		return styleFluid
	case k.Roles.Has(catalog.RolePole):
		return stylePower
	case k.Roles.Has(catalog.RoleBeacon):
		return styleBeacon
	case k.Roles.Has(catalog.RoleGate), k.Roles.Has(catalog.RoleStraightRail), k.Roles.Has(catalog.RoleCurvedRail):
		return styleRail
	}
	return styleMachine
}

// Grid draws the cells of opts.Area, one line per row. Cells covered by one
// entity show its [Glyph], cells covered by several show [GlyphOverlap].
// Off-grid entities are not drawn.
func Grid(v *blueprint.View, opts GridOptions) string {
	area := opts.Area
	if area.Empty() {
		area = v.Bounds()
	}
	if area.Empty() {
		return ""
	}

	tiles := make(map[geom.Point]bool)
	for _, t := range v.Tiles() {
		tiles[t.Position] = true
	}
	cat := v.Catalog()
	grid := v.Grid()

	var b strings.Builder
	for y := area.Y; y < area.Y+area.H; y++ {
		for x := area.X; x < area.X+area.W; x++ {
			p := geom.Pt(x, y)
			var (
				ch    rune
				style lipgloss.Style
			)
			ids := grid.EntitiesAt(p)
			switch {
			case len(ids) > 1:
				ch, style = GlyphOverlap, styleOverlap
			case len(ids) == 1:
				e, _ := v.Entity(ids[0])
				k, _ := cat.Lookup(e.Kind)
				ch, style = Glyph(k, e), glyphStyle(k)
				if opts.Selected != blueprint.NoEntity && ids[0] == opts.Selected {
					style = style.Inherit(styleSelected)
				}
			case tiles[p]:
				ch, style = GlyphTile, styleTile
			default:
				ch, style = GlyphEmpty, styleEmpty
			}

			if !opts.Color {
				b.WriteRune(ch)
				continue
			}
			if opts.Cursor != nil && *opts.Cursor == p {
				style = style.Inherit(styleCursor)
			}
			b.WriteString(style.Render(string(ch)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
