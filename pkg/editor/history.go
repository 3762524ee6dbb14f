package editor

// DefaultHistoryCapacity bounds the undo log; recording beyond it evicts the
// oldest entry.
const DefaultHistoryCapacity = 50

// History is a bounded linear undo/redo log. The pointer indexes the last
// applied entry, -1 when nothing is applied. Undo and Redo outside their
// valid range return false without effect.
type History struct {
	entries  []EditAction
	pointer  int
	capacity int
	dirty    bool
}

// NewHistory returns an empty log. capacity <= 0 selects the default.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{pointer: -1, capacity: capacity}
}

// Record appends an already-applied action, discarding any redo tail and
// evicting the oldest entry once capacity is exceeded. The session is marked
// dirty on every record.
func (h *History) Record(a EditAction) {
	if a == nil {
		return
	}
	h.entries = append(h.entries[:h.pointer+1], a)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[1:]
	}
	h.pointer = len(h.entries) - 1
	h.dirty = true
}

// Undo applies the inverse of the current entry and steps back. Returns
// false when there is nothing to undo.
func (h *History) Undo(s *EntityStore) bool {
	if h.pointer < 0 {
		return false
	}
	h.entries[h.pointer].revert(s)
	h.pointer--
	h.dirty = true
	return true
}

// Redo re-applies the next entry and steps forward. Returns false when there
// is nothing to redo.
func (h *History) Redo(s *EntityStore) bool {
	if h.pointer >= len(h.entries)-1 {
		return false
	}
	h.pointer++
	h.entries[h.pointer].apply(s)
	h.dirty = true
	return true
}

// CanUndo reports whether Undo would have an effect.
func (h *History) CanUndo() bool { return h.pointer >= 0 }

// CanRedo reports whether Redo would have an effect.
func (h *History) CanRedo() bool { return h.pointer < len(h.entries)-1 }

// Len returns the number of retained entries.
func (h *History) Len() int { return len(h.entries) }

// Pointer returns the index of the last applied entry, -1 when none.
func (h *History) Pointer() int { return h.pointer }

// Dirty reports whether the session has unsaved changes.
func (h *History) Dirty() bool { return h.dirty }

// MarkSaved clears the dirty flag after a successful save.
func (h *History) MarkSaved() { h.dirty = false }
