package blueprint

// EntryKind classifies a history entry.
type EntryKind uint8

const (
	EntryInit EntryKind = iota
	EntryAdd
	EntryDel
	EntryMove
	EntryUpdate
)

func (k EntryKind) String() string {
	switch k {
	case EntryInit:
		return "init"
	case EntryAdd:
		return "add"
	case EntryDel:
		return "del"
	case EntryMove:
		return "move"
	case EntryUpdate:
		return "update"
	}
	return "unknown"
}

// State is a snapshot of every store of a blueprint, taken together: the
// entity table with its grid index, the tiles, the wires and the next id.
// Holding a State keeps the snapshot alive; it shares structure with
// neighboring snapshots.
type State struct {
	grid   PositionGrid
	tiles  TileTable
	conns  ConnectionGraph
	nextID EntityID
}

// HistoryEntry records one user-visible edit and the state right after it.
type HistoryEntry struct {
	Kind     EntryKind
	Primary  EntityID
	Linked   EntityID
	Affected []EntityID
	State    State
}

// EditHistory is a linear undo log with a cursor. Entry 0 is the Init entry
// holding the construction state; the entry at the cursor holds the current
// state.
type EditHistory struct {
	entries    []HistoryEntry
	cursor     int
	maxEntries int
}

// NewEditHistory starts a log at the given state. A positive maxEntries
// bounds the number of undoable entries; older ones are folded into Init.
func NewEditHistory(initial State, maxEntries int) *EditHistory {
	return &EditHistory{
		entries:    []HistoryEntry{{Kind: EntryInit, State: initial}},
		maxEntries: maxEntries,
	}
}

// Push discards every entry after the cursor, appends e and moves the
// cursor onto it.
func (h *EditHistory) Push(e HistoryEntry) {
	h.entries = append(h.entries[:h.cursor+1], e)
	h.cursor++
	if h.maxEntries > 0 && len(h.entries) > h.maxEntries+1 {
		drop := len(h.entries) - (h.maxEntries + 1)
		init := h.entries[drop]
		init = HistoryEntry{Kind: EntryInit, State: init.State}
		h.entries = append([]HistoryEntry{init}, h.entries[drop+1:]...)
		h.cursor -= drop
	}
}

// Undo steps the cursor back. It returns the undone entry and the state to
// restore. ok is false at the Init entry.
func (h *EditHistory) Undo() (undone HistoryEntry, restore State, ok bool) {
	if h.cursor == 0 {
		return HistoryEntry{}, State{}, false
	}
	undone = h.entries[h.cursor]
	h.cursor--
	return undone, h.entries[h.cursor].State, true
}

// Redo steps the cursor forward. It returns the redone entry and the state
// to restore. ok is false at the newest entry.
func (h *EditHistory) Redo() (redone HistoryEntry, restore State, ok bool) {
	if h.cursor+1 >= len(h.entries) {
		return HistoryEntry{}, State{}, false
	}
	h.cursor++
	redone = h.entries[h.cursor]
	return redone, redone.State, true
}

// Len returns the number of entries including Init.
func (h *EditHistory) Len() int { return len(h.entries) }

// Cursor returns the index of the current entry.
func (h *EditHistory) Cursor() int { return h.cursor }

// CanUndo reports whether Undo would succeed.
func (h *EditHistory) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would succeed.
func (h *EditHistory) CanRedo() bool { return h.cursor+1 < len(h.entries) }

// Current returns the state at the cursor.
func (h *EditHistory) Current() State { return h.entries[h.cursor].State }

// Entries returns a copy of the log for display.
func (h *EditHistory) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}
