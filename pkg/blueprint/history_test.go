package blueprint

import "testing"

func stateWithNext(n EntityID) State { return State{nextID: n} }

func TestEditHistory(t *testing.T) {
	h := NewEditHistory(stateWithNext(1), 0)
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("fresh history can undo or redo")
	}

	h.Push(HistoryEntry{Kind: EntryAdd, Primary: 1, Affected: []EntityID{1}, State: stateWithNext(2)})
	h.Push(HistoryEntry{Kind: EntryAdd, Primary: 2, Affected: []EntityID{2}, State: stateWithNext(3)})

	undone, s, ok := h.Undo()
	if !ok || undone.Primary != 2 || s.nextID != 2 {
		t.Fatalf("Undo() = %+v, next %d, %v", undone, s.nextID, ok)
	}
	redone, s, ok := h.Redo()
	if !ok || redone.Primary != 2 || s.nextID != 3 {
		t.Fatalf("Redo() = %+v, next %d, %v", redone, s.nextID, ok)
	}
	if _, _, ok := h.Redo(); ok {
		t.Error("Redo() past the end succeeded")
	}

	h.Undo()
	h.Undo()
	if _, _, ok := h.Undo(); ok {
		t.Error("Undo() past Init succeeded")
	}

	// A new edit discards the redo tail.
	h.Push(HistoryEntry{Kind: EntryMove, Primary: 9, State: stateWithNext(7)})
	if h.Len() != 2 || h.CanRedo() {
		t.Errorf("Len() = %d, CanRedo() = %v after push over undone entries", h.Len(), h.CanRedo())
	}
	if h.Current().nextID != 7 {
		t.Errorf("Current().nextID = %d, want 7", h.Current().nextID)
	}
}

func TestEditHistoryTrim(t *testing.T) {
	h := NewEditHistory(stateWithNext(1), 2)
	for i := EntityID(2); i <= 5; i++ {
		h.Push(HistoryEntry{Kind: EntryAdd, Primary: i, State: stateWithNext(i)})
	}
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	entries := h.Entries()
	if entries[0].Kind != EntryInit || entries[0].State.nextID != 3 {
		t.Errorf("folded Init = %+v", entries[0])
	}
	if h.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", h.Cursor())
	}
	h.Undo()
	h.Undo()
	if h.CanUndo() {
		t.Error("undo reached past the folded entries")
	}
}
