package navigation

// History is a bounded FIFO of recently visited node identifiers. Nodes in
// the window are hard-excluded from candidate lists regardless of repeat
// filter scoring. A max of zero disables history exclusion entirely.
type History struct {
	max int
	ids []string
}

// NewHistory creates a history window holding at most max identifiers.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Push appends an identifier, evicting the oldest entry when over capacity.
func (h *History) Push(id string) {
	if h.max <= 0 {
		return
	}
	h.ids = append(h.ids, id)
	if len(h.ids) > h.max {
		h.ids = h.ids[1:]
	}
}

// Contains reports whether the identifier is in the window.
func (h *History) Contains(id string) bool {
	for _, v := range h.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Len returns the number of identifiers currently held.
func (h *History) Len() int {
	return len(h.ids)
}

// Items returns a copy of the window, oldest first.
func (h *History) Items() []string {
	out := make([]string, len(h.ids))
	copy(out, h.ids)
	return out
}

// Clone returns an independent copy for preview routing.
func (h *History) Clone() *History {
	c := &History{max: h.max, ids: make([]string, len(h.ids))}
	copy(c.ids, h.ids)
	return c
}
