package router

// History is a browser-style stack of visited locations.
type History struct {
	entries []Location
	index   int
}

// Push adds loc after the current entry, dropping any forward entries.
func (h *History) Push(loc Location) {
	if len(h.entries) == 0 {
		h.entries = []Location{loc}
		h.index = 0
		return
	}
	h.entries = append(h.entries[:h.index+1], loc)
	h.index = len(h.entries) - 1
}

// Replace overwrites the current entry, or pushes when history is empty.
func (h *History) Replace(loc Location) {
	if len(h.entries) == 0 {
		h.Push(loc)
		return
	}
	h.entries[h.index] = loc
}

// Back moves to the previous entry.
func (h *History) Back() (Location, bool) {
	if h.index == 0 || len(h.entries) == 0 {
		return Location{}, false
	}
	h.index--
	return h.entries[h.index], true
}

// Current returns the current entry.
func (h *History) Current() (Location, bool) {
	if len(h.entries) == 0 {
		return Location{}, false
	}
	return h.entries[h.index], true
}

// Entries returns a copy of the stack up to and including the current entry.
func (h *History) Entries() []Location {
	if len(h.entries) == 0 {
		return nil
	}
	out := make([]Location, h.index+1)
	copy(out, h.entries[:h.index+1])
	return out
}
