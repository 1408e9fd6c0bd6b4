package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ResourceSummary is one workflow as shown in the listing. Identity is ID
// (the app id used for export).
type ResourceSummary struct {
	ID                 string    `json:"app_id"`
	WorkflowID         string    `json:"id,omitempty"`
	DisplayName        string    `json:"app_name"`
	Version            string    `json:"version"`
	NodeCount          int       `json:"node_count"`
	HasSecretVariables bool      `json:"has_secret_variables"`
	LastModified       Timestamp `json:"last_modified"`
	KindTag            string    `json:"app_mode"`
	Description        string    `json:"description,omitempty"`
}

// ListingPage is one window of the workflow listing.
type ListingPage struct {
	Items      []ResourceSummary `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
	HasNext    bool              `json:"has_next"`
	HasPrev    bool              `json:"has_prev"`
}

// NewListingPage builds a page and derives the pagination fields from total
// and pageSize, ignoring whatever the server computed for them.
func NewListingPage(items []ResourceSummary, page, pageSize, total int) ListingPage {
	if items == nil {
		items = []ResourceSummary{}
	}
	if pageSize > 0 && len(items) > pageSize {
		items = items[:pageSize]
	}
	totalPages := 0
	if total > 0 && pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return ListingPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// IDs returns the resource ids on the page, in listing order.
func (p ListingPage) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

// ListingResult is a page plus the aggregate counts per kind tag across the
// whole (search-filtered) listing.
type ListingResult struct {
	Page  ListingPage    `json:"page"`
	Stats map[string]int `json:"stats"`
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO 8601 strings the
// workflow service emits.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
