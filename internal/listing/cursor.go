// Package listing pages through the remote workflow listing and keeps the
// operator's cross-page selection in step with what each page showed.
package listing

import (
	"context"
	"fmt"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

// Page size bounds enforced before a request leaves the workbench.
const (
	DefaultPageSize = 20
	MinPageSize     = 5
	MaxPageSize     = 100
)

// Lister is the part of the remote client the cursor needs.
type Lister interface {
	ListWorkflows(ctx context.Context, page, pageSize int, search string) (models.ListingResult, error)
	RefreshWorkflows(ctx context.Context) error
}

// ListingError wraps a failed listing call. Op is "fetch" or "refresh".
type ListingError struct {
	Op  string
	Err error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %s failed: %v", e.Op, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// Window identifies one listing request.
type Window struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
}

// Cursor requests listing pages. It does no caching of its own.
type Cursor struct {
	lister          Lister
	defaultPageSize int
}

// NewCursor creates a cursor. A non-positive defaultPageSize means 20.
func NewCursor(l Lister, defaultPageSize int) *Cursor {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	return &Cursor{lister: l, defaultPageSize: defaultPageSize}
}

// Normalize clamps a window to valid values.
func (c *Cursor) Normalize(w Window) Window {
	if w.Page < 1 {
		w.Page = 1
	}
	if w.PageSize <= 0 {
		w.PageSize = c.defaultPageSize
	}
	if w.PageSize < MinPageSize {
		w.PageSize = MinPageSize
	}
	if w.PageSize > MaxPageSize {
		w.PageSize = MaxPageSize
	}
	return w
}

// Fetch loads the page described by w.
func (c *Cursor) Fetch(ctx context.Context, w Window) (Window, models.ListingResult, error) {
	w = c.Normalize(w)
	res, err := c.lister.ListWorkflows(ctx, w.Page, w.PageSize, w.Search)
	if err != nil {
		return w, models.ListingResult{}, &ListingError{Op: "fetch", Err: err}
	}
	return w, res, nil
}

// Refresh invalidates the server-side cache, then loads page 1 of w.
func (c *Cursor) Refresh(ctx context.Context, w Window) (Window, models.ListingResult, error) {
	if err := c.lister.RefreshWorkflows(ctx); err != nil {
		return w, models.ListingResult{}, &ListingError{Op: "refresh", Err: err}
	}
	w.Page = 1
	return c.Fetch(ctx, w)
}
