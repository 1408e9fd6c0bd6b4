package listing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

// Page-scoped selection actions.
const (
	PageSelect   = "select"
	PageDeselect = "deselect"
	PageToggle   = "toggle"
)

// View is a consistent snapshot of the listing and the selection.
type View struct {
	Window          Window             `json:"window"`
	Page            models.ListingPage `json:"page"`
	Stats           map[string]int     `json:"stats"`
	Selected        []string           `json:"selected"`
	SelectedInPage  []string           `json:"selected_in_page"`
	AllPageSelected bool               `json:"all_page_selected"`
	Loaded          bool               `json:"loaded"`
	Stale           bool               `json:"stale,omitempty"`
}

// Session binds a Cursor to a Selection. Page replacement and selection
// reconciliation happen under one lock; the lock is never held across a
// remote call, and a response older than the last applied one is dropped.
type Session struct {
	cursor *Cursor

	mu      sync.Mutex
	window  Window
	current models.ListingResult
	loaded  bool
	sel     *Selection
	issued  uint64
	applied uint64
}

// NewSession creates a session with an empty selection.
func NewSession(c *Cursor) *Session {
	return &Session{
		cursor: c,
		window: c.Normalize(Window{}),
		sel:    NewSelection(),
	}
}

// Load fetches w. When a page is already loaded, a change of page size or
// search moves w back to page 1.
func (s *Session) Load(ctx context.Context, w Window) (View, error) {
	s.mu.Lock()
	w = s.cursor.Normalize(w)
	if s.loaded && (w.PageSize != s.window.PageSize || w.Search != s.window.Search) {
		w.Page = 1
	}
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	w, res, err := s.cursor.Fetch(ctx, w)
	if err != nil {
		return s.View(), err
	}
	return s.apply(seq, w, res, false), nil
}

// GoToPage moves to page. A page outside 1..total_pages is ignored once the
// total is known.
func (s *Session) GoToPage(ctx context.Context, page int) (View, error) {
	s.mu.Lock()
	w := s.window
	total := s.current.Page.TotalPages
	loaded := s.loaded
	s.mu.Unlock()

	if loaded && total > 0 && (page < 1 || page > total) {
		return s.View(), nil
	}
	w.Page = page
	return s.Load(ctx, w)
}

// SetPageSize changes the page size and returns to page 1.
func (s *Session) SetPageSize(ctx context.Context, size int) (View, error) {
	s.mu.Lock()
	w := s.window
	s.mu.Unlock()
	w.Page = 1
	w.PageSize = size
	return s.Load(ctx, w)
}

// Search changes the search keyword and returns to page 1.
func (s *Session) Search(ctx context.Context, keyword string) (View, error) {
	s.mu.Lock()
	w := s.window
	s.mu.Unlock()
	w.Page = 1
	w.Search = keyword
	return s.Load(ctx, w)
}

// Reload fetches the current window again.
func (s *Session) Reload(ctx context.Context) (View, error) {
	s.mu.Lock()
	w := s.window
	s.mu.Unlock()
	return s.Load(ctx, w)
}

// Refresh invalidates the server cache and loads page 1. On success the
// selection is cleared, even when a later load has already replaced the
// page and the refreshed page 1 is dropped as stale.
func (s *Session) Refresh(ctx context.Context) (View, error) {
	s.mu.Lock()
	w := s.window
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	w, res, err := s.cursor.Refresh(ctx, w)
	if err != nil {
		return s.View(), err
	}
	return s.apply(seq, w, res, true), nil
}

func (s *Session) apply(seq uint64, w Window, res models.ListingResult, clear bool) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		if clear {
			s.sel.Clear()
		}
		v := s.viewLocked()
		v.Stale = true
		return v
	}
	s.applied = seq
	s.window = w
	s.current = res
	s.loaded = true
	if clear {
		s.sel.Clear()
	}
	s.sel.ReconcileAgainstVisible(w, res.Page.IDs())
	return s.viewLocked()
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	visible := s.current.Page.IDs()
	page := s.current.Page
	if page.Items == nil {
		page = models.NewListingPage(nil, s.window.Page, s.window.PageSize, 0)
	}
	stats := s.current.Stats
	if stats == nil {
		stats = map[string]int{}
	}
	return View{
		Window:          s.window,
		Page:            page,
		Stats:           stats,
		Selected:        s.sel.IDs(),
		SelectedInPage:  s.sel.SelectedInCurrentPage(visible),
		AllPageSelected: s.sel.AllCurrentPageSelected(visible),
		Loaded:          s.loaded,
	}
}

// SelectedIDs returns the selection in selection order.
func (s *Session) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.IDs()
}

// Toggle flips one id and reports whether it is now selected.
func (s *Session) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := s.sel.Toggle(id)
	s.observeLocked()
	return on
}

// Select adds ids to the selection. Ids not on any loaded page are kept as
// they are.
func (s *Session) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Select(ids...)
	s.observeLocked()
}

// Deselect removes ids from the selection.
func (s *Session) Deselect(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Deselect(ids...)
}

// Clear empties the selection.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

// PageAction applies a page-scoped bulk action to the loaded page.
func (s *Session) PageAction(action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := s.current.Page.IDs()
	switch action {
	case PageSelect:
		s.sel.SelectPage(s.window, visible)
	case PageDeselect:
		s.sel.DeselectPage(visible)
	case PageToggle:
		s.sel.TogglePage(s.window, visible)
	default:
		return fmt.Errorf("unknown page action %q", action)
	}
	return nil
}

func (s *Session) observeLocked() {
	if s.loaded {
		s.sel.Observe(s.window, s.current.Page.IDs())
	}
}
