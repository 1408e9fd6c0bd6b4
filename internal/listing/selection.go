package listing

// Selection is the set of selected resource ids, kept across pages and
// searches. Each id remembers the window it was last seen in, which is what
// makes reconciliation safe: an id is only dropped when a fresh fetch of the
// very window that last showed it no longer contains it.
//
// Selection is not safe for concurrent use; Session guards it.
type Selection struct {
	order []string
	seen  map[string]*Window // nil value: selected but never observed
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{seen: make(map[string]*Window)}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.order) }

// IDs returns the selected ids in the order they were selected.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Select adds ids. Already selected ids keep their position.
func (s *Selection) Select(ids ...string) {
	for _, id := range ids {
		if id == "" || s.Has(id) {
			continue
		}
		s.seen[id] = nil
		s.order = append(s.order, id)
	}
}

// Deselect removes ids. Unknown ids are ignored.
func (s *Selection) Deselect(ids ...string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.Has(id) {
			drop[id] = true
			delete(s.seen, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if s.Has(id) {
		s.Deselect(id)
		return false
	}
	s.Select(id)
	return s.Has(id)
}

// Clear removes every id.
func (s *Selection) Clear() {
	s.order = nil
	s.seen = make(map[string]*Window)
}

// Observe records that the selected ids among visible were shown in w.
func (s *Selection) Observe(w Window, visible []string) {
	for _, id := range visible {
		if _, ok := s.seen[id]; ok {
			win := w
			s.seen[id] = &win
		}
	}
}

// ReconcileAgainstVisible applies a freshly fetched window. Selected ids
// that were last observed in w and are missing from visible are removed;
// every other selected id is kept. Selected ids present in visible are
// marked as observed in w. It returns the removed ids.
func (s *Selection) ReconcileAgainstVisible(w Window, visible []string) []string {
	present := make(map[string]bool, len(visible))
	for _, id := range visible {
		present[id] = true
	}

	var removed []string
	for _, id := range s.order {
		last := s.seen[id]
		if last != nil && *last == w && !present[id] {
			removed = append(removed, id)
		}
	}
	s.Deselect(removed...)
	s.Observe(w, visible)
	return removed
}

// SelectedInCurrentPage returns the selected ids among visible, in page order.
func (s *Selection) SelectedInCurrentPage(visible []string) []string {
	var out []string
	for _, id := range visible {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// AllCurrentPageSelected reports whether every visible id is selected.
// An empty page is never fully selected.
func (s *Selection) AllCurrentPageSelected(visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// SelectPage selects every visible id.
func (s *Selection) SelectPage(w Window, visible []string) {
	s.Select(visible...)
	s.Observe(w, visible)
}

// DeselectPage deselects every visible id.
func (s *Selection) DeselectPage(visible []string) {
	s.Deselect(visible...)
}

// TogglePage deselects the page when it is fully selected, otherwise
// selects all of it.
func (s *Selection) TogglePage(w Window, visible []string) {
	if s.AllCurrentPageSelected(visible) {
		s.DeselectPage(visible)
		return
	}
	s.SelectPage(w, visible)
}

// Clone returns an independent copy.
func (s *Selection) Clone() *Selection {
	cp := NewSelection()
	cp.order = s.IDs()
	for id, w := range s.seen {
		if w != nil {
			win := *w
			cp.seen[id] = &win
		} else {
			cp.seen[id] = nil
		}
	}
	return cp
}
