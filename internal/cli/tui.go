package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/geom"
	"github.com/matzehuels/gridplan/pkg/render"
)

// viewerChrome is the number of terminal lines used around the grid.
const viewerChrome = 5

// =============================================================================
// ViewerModel - Interactive blueprint viewer
// =============================================================================

// ViewerModel is the bubbletea model of the view command. It scrolls a
// window over the grid and applies small edits to the entity under the
// cursor.
type ViewerModel struct {
	Blueprint *blueprint.Blueprint

	// Path is where "s" writes the blueprint. Empty disables saving.
	Path string

	Cursor geom.Point
	Origin geom.Point
	Width  int
	Height int

	Status string
	Dirty  bool
}

// NewViewerModel creates a viewer with the cursor on the top-left corner of
// the blueprint.
func NewViewerModel(bp *blueprint.Blueprint, path string) ViewerModel {
	b := bp.Bounds()
	return ViewerModel{
		Blueprint: bp,
		Path:      path,
		Cursor:    b.Min(),
		Origin:    b.Min(),
		Width:     60,
		Height:    20,
	}
}

// selected returns the entity under the cursor.
func (m ViewerModel) selected() (blueprint.Entity, bool) {
	ids := m.Blueprint.Grid().EntitiesAt(m.Cursor)
	if len(ids) == 0 {
		return blueprint.Entity{}, false
	}
	return m.Blueprint.Entity(ids[0])
}

func (m ViewerModel) Init() tea.Cmd {
	return nil
}

func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.Status = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(geom.North)
		case "down", "j":
			m.move(geom.South)
		case "left", "h":
			m.move(geom.West)
		case "right", "l":
			m.move(geom.East)
		case "r", "R":
			m.rotate(msg.String() == "R")
		case "d", "x":
			m.remove()
		case "u":
			m.history(m.Blueprint.Undo, "undo")
		case "ctrl+r", "U":
			m.history(m.Blueprint.Redo, "redo")
		case "s":
			m.save()
		}
	case tea.WindowSizeMsg:
		m.Width = max(msg.Width, 10)
		m.Height = max(msg.Height-viewerChrome, 5)
		m.scroll()
	}
	return m, nil
}

func (m *ViewerModel) move(d geom.Direction) {
	m.Cursor = m.Cursor.Step(d)
	m.scroll()
}

// scroll keeps the cursor inside the window.
func (m *ViewerModel) scroll() {
	switch {
	case m.Cursor.X < m.Origin.X:
		m.Origin.X = m.Cursor.X
	case m.Cursor.X >= m.Origin.X+m.Width:
		m.Origin.X = m.Cursor.X - m.Width + 1
	}
	switch {
	case m.Cursor.Y < m.Origin.Y:
		m.Origin.Y = m.Cursor.Y
	case m.Cursor.Y >= m.Origin.Y+m.Height:
		m.Origin.Y = m.Cursor.Y - m.Height + 1
	}
}

func (m *ViewerModel) rotate(ccw bool) {
	e, ok := m.selected()
	if !ok {
		return
	}
	if err := m.Blueprint.RotateEntity(e.ID, ccw, true); err != nil {
		m.fail(err)
		return
	}
	m.Dirty = true
	m.Status = fmt.Sprintf("rotated #%d", e.ID)
}

func (m *ViewerModel) remove() {
	e, ok := m.selected()
	if !ok {
		return
	}
	if _, err := m.Blueprint.RemoveEntity(e.ID); err != nil {
		m.fail(err)
		return
	}
	m.Dirty = true
	m.Status = fmt.Sprintf("removed %s #%d", e.Kind, e.ID)
}

func (m *ViewerModel) history(step func() ([]blueprint.EntityID, bool), name string) {
	affected, ok := step()
	if !ok {
		m.Status = "nothing to " + name
		return
	}
	m.Dirty = true
	m.Status = fmt.Sprintf("%s: %d entities", name, len(affected))
}

func (m *ViewerModel) save() {
	if m.Path == "" {
		m.Status = "read from stdin, nothing to save to"
		return
	}
	f, err := os.Create(m.Path)
	if err != nil {
		m.fail(err)
		return
	}
	err = m.Blueprint.WriteJSON(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.fail(err)
		return
	}
	m.Dirty = false
	m.Status = "saved " + m.Path
}

func (m *ViewerModel) fail(err error) {
	m.Status = StyleWarning.Render(errors.UserMessage(err))
}

func (m ViewerModel) View() string {
	var b strings.Builder

	title := "Blueprint"
	if m.Path != "" {
		title = m.Path
	}
	if m.Dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	cursor := m.Cursor
	opts := render.GridOptions{
		Area:   geom.Area{X: m.Origin.X, Y: m.Origin.Y, W: m.Width, H: m.Height},
		Color:  true,
		Cursor: &cursor,
	}
	e, ok := m.selected()
	if ok {
		opts.Selected = e.ID
	}
	b.WriteString(render.Grid(m.Blueprint.View(), opts))

	info := fmt.Sprintf("%v", m.Cursor)
	if ok {
		info += fmt.Sprintf("  #%d %s facing %s", e.ID, e.Kind, e.Direction)
		if e.Recipe != "" {
			info += " (" + e.Recipe + ")"
		}
	}
	b.WriteString(StyleValue.Render(info))
	b.WriteString("\n")
	b.WriteString(m.Status)
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("arrows/hjkl move  r/R rotate  d delete  u undo  U redo  s save  q quit"))

	return b.String()
}
