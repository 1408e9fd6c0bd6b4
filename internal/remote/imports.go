package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

// ImportRequest is the body of POST /workflows/import.
type ImportRequest struct {
	Mode             string `json:"mode"`
	YAMLContent      string `json:"yaml_content,omitempty"`
	YAMLURL          string `json:"yaml_url,omitempty"`
	Name             string `json:"name,omitempty"`
	Description      string `json:"description,omitempty"`
	IconType         string `json:"icon_type,omitempty"`
	Icon             string `json:"icon,omitempty"`
	IconBackground   string `json:"icon_background,omitempty"`
	AppID            string `json:"app_id,omitempty"`
	TargetInstanceID string `json:"target_instance_id"`
}

// NewImportRequest builds a yaml-content import request.
func NewImportRequest(content, targetInstanceID string, o models.NamingOverrides) ImportRequest {
	return ImportRequest{
		Mode:             "yaml-content",
		YAMLContent:      content,
		Name:             o.Name,
		Description:      o.Description,
		IconType:         o.IconType,
		Icon:             o.Icon,
		IconBackground:   o.IconBackground,
		AppID:            o.AppID,
		TargetInstanceID: targetInstanceID,
	}
}

// ImportResponse is the service's answer to an import submit or confirm.
// Older services name the import id "id".
type ImportResponse struct {
	ImportID           string                    `json:"import_id"`
	LegacyID           string                    `json:"id"`
	Status             string                    `json:"status"`
	AppID              string                    `json:"app_id"`
	AppMode            string                    `json:"app_mode"`
	CurrentDSLVersion  string                    `json:"current_dsl_version"`
	ImportedDSLVersion string                    `json:"imported_dsl_version"`
	Warnings           []string                  `json:"warnings"`
	Dependencies       []models.ImportDependency `json:"dependencies"`
	Error              string                    `json:"error"`

	// HTTPStatus is the status code of the answer, not part of the body.
	HTTPStatus int `json:"-"`
}

// ID returns the import id whichever field carried it.
func (r *ImportResponse) ID() string {
	if r.ImportID != "" {
		return r.ImportID
	}
	return r.LegacyID
}

// Pending reports whether the import awaits confirmation.
func (r *ImportResponse) Pending() bool {
	return r.HTTPStatus == http.StatusAccepted || r.Status == string(models.ImportPending)
}

// SubmitImport submits a document for import. A 202 answer means the target
// wants the import confirmed.
func (c *Client) SubmitImport(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	var resp ImportResponse
	code, err := c.PostJSON(ctx, "/workflows/import", req, &resp)
	if err != nil {
		return nil, err
	}
	resp.HTTPStatus = code
	return &resp, nil
}

// ConfirmImport finalizes a pending import.
func (c *Client) ConfirmImport(ctx context.Context, importID, targetInstanceID string) (*ImportResponse, error) {
	body := map[string]string{"target_instance_id": targetInstanceID}
	var resp ImportResponse
	code, err := c.PostJSON(ctx, "/workflows/import/"+url.PathEscape(importID)+"/confirm", body, &resp)
	if err != nil {
		return nil, err
	}
	resp.HTTPStatus = code
	return &resp, nil
}

// BatchImportFile is one file of a server-side batch import.
type BatchImportFile struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// BatchImportRequest is the body of POST /workflows/batch-import.
type BatchImportRequest struct {
	Files            []BatchImportFile    `json:"files"`
	TargetInstanceID string               `json:"target_instance_id"`
	ImportOptions    models.ImportOptions `json:"import_options"`
}

// BatchImportResultItem is one entry of the service's batch import answer.
type BatchImportResultItem struct {
	Filename string   `json:"filename"`
	Success  bool     `json:"success"`
	AppID    string   `json:"app_id"`
	AppName  string   `json:"app_name"`
	ImportID string   `json:"import_id"`
	Status   string   `json:"status"`
	Error    string   `json:"error"`
	Warnings []string `json:"warnings"`
}

// BatchImportResponse is the service's batch import answer.
type BatchImportResponse struct {
	Results      []BatchImportResultItem `json:"results"`
	SuccessCount int                     `json:"success_count"`
	TotalCount   int                     `json:"total_count"`
	FailedCount  int                     `json:"failed_count"`
	WarningCount int                     `json:"warning_count"`
}

// BatchImport hands a whole batch to the service.
func (c *Client) BatchImport(ctx context.Context, req BatchImportRequest) (*BatchImportResponse, error) {
	var resp BatchImportResponse
	if _, err := c.PostJSON(ctx, "/workflows/batch-import", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AppInfo is the app summary returned by remote validation.
type AppInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Mode           string `json:"mode"`
	Icon           string `json:"icon"`
	IconType       string `json:"icon_type"`
	IconBackground string `json:"icon_background"`
	Version        string `json:"version"`
}

// ValidationResult is the service's answer to POST /workflows/validate.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Error   string   `json:"error,omitempty"`
	AppInfo *AppInfo `json:"app_info,omitempty"`
}

// ValidateFile asks the service to validate one document.
func (c *Client) ValidateFile(ctx context.Context, content string) (*ValidationResult, error) {
	var resp ValidationResult
	body := map[string]string{"yaml_content": content}
	if _, err := c.PostJSON(ctx, "/workflows/validate", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
