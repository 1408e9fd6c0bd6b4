package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

type pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

type listResponse struct {
	Workflows  []models.ResourceSummary `json:"workflows"`
	Pagination pagination               `json:"pagination"`
	Stats      map[string]int           `json:"stats"`
}

// ListWorkflows fetches one page of the workflow listing.
func (c *Client) ListWorkflows(ctx context.Context, page, pageSize int, search string) (models.ListingResult, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	if search != "" {
		params.Set("search", search)
	}

	var resp listResponse
	if err := c.GetJSON(ctx, "/workflows", params, &resp); err != nil {
		return models.ListingResult{}, err
	}

	p := resp.Pagination
	if p.Page <= 0 {
		p.Page = page
	}
	if p.PageSize <= 0 {
		p.PageSize = pageSize
	}
	if p.Total < len(resp.Workflows) {
		p.Total = len(resp.Workflows)
	}
	stats := resp.Stats
	if stats == nil {
		stats = map[string]int{}
	}
	return models.ListingResult{
		Page:  models.NewListingPage(resp.Workflows, p.Page, p.PageSize, p.Total),
		Stats: stats,
	}, nil
}

// RefreshWorkflows asks the service to drop its listing cache.
func (c *Client) RefreshWorkflows(ctx context.Context) error {
	_, _, err := c.Post(ctx, "/workflows/refresh", nil)
	return err
}

// ExportApp returns the DSL document of a single app.
func (c *Client) ExportApp(ctx context.Context, appID string, includeSecret bool) (string, error) {
	params := url.Values{}
	params.Set("include_secret", strconv.FormatBool(includeSecret))
	var resp struct {
		Data string `json:"data"`
	}
	if err := c.GetJSON(ctx, "/apps/"+url.PathEscape(appID)+"/export", params, &resp); err != nil {
		return "", err
	}
	if resp.Data == "" {
		return "", fmt.Errorf("export of %s returned no data", appID)
	}
	return resp.Data, nil
}

// BatchExportRequest is the body of POST /workflows/batch-export.
type BatchExportRequest struct {
	AppIDs        []string `json:"app_ids"`
	IncludeSecret bool     `json:"include_secret"`
	ExportFormat  string   `json:"export_format"`
}

// BatchExportItem is one entry of the service's batch export answer.
type BatchExportItem struct {
	AppID        string `json:"app_id"`
	Success      bool   `json:"success"`
	Data         string `json:"data,omitempty"`
	Filename     string `json:"filename,omitempty"`
	WorkflowName string `json:"workflow_name,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchExportResponse is the service's batch export answer. Data holds the
// base64 archive for the zip format.
type BatchExportResponse struct {
	ExportFormat string            `json:"export_format"`
	Filename     string            `json:"filename,omitempty"`
	Data         string            `json:"data,omitempty"`
	Results      []BatchExportItem `json:"results"`
	SuccessCount int               `json:"success_count"`
	TotalCount   int               `json:"total_count"`
}

// BatchExport exports several apps in one call.
func (c *Client) BatchExport(ctx context.Context, req BatchExportRequest) (*BatchExportResponse, error) {
	var resp BatchExportResponse
	if _, err := c.PostJSON(ctx, "/workflows/batch-export", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
