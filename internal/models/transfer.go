package models

import "fmt"

// ExportFormat selects how exported workflows are packaged.
type ExportFormat string

const (
	FormatBundle  ExportFormat = "bundle"   // one archive covering every exported item
	FormatPerItem ExportFormat = "per-item" // one artifact per item
)

// ParseExportFormat accepts both the workbench names and the service's wire
// names ("zip", "individual").
func ParseExportFormat(s string) (ExportFormat, error) {
	switch s {
	case "", "bundle", "zip":
		return FormatBundle, nil
	case "per-item", "individual":
		return FormatPerItem, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Wire returns the value the workflow service expects for export_format.
func (f ExportFormat) Wire() string {
	if f == FormatPerItem {
		return "individual"
	}
	return "zip"
}

// ExportItemResult is the outcome of exporting one resource.
type ExportItemResult struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Success  bool   `json:"success"`
	Content  string `json:"content,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ExportBundle is the single archive produced by a bundle export.
type ExportBundle struct {
	Filename string   `json:"filename"`
	Data     []byte   `json:"data"`
	Entries  []string `json:"entries"`
}

// ExportBatchResult aggregates a batch export. Items follow request order.
type ExportBatchResult struct {
	Format       ExportFormat       `json:"format"`
	Items        []ExportItemResult `json:"items"`
	Bundle       *ExportBundle      `json:"bundle,omitempty"`
	BundleError  string             `json:"bundle_error,omitempty"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	TotalCount   int                `json:"total_count"`
}

// Progress reports how far a batch has come.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// ImportStatus is the state of an import draft.
type ImportStatus string

const (
	ImportSubmitted             ImportStatus = "submitted"
	ImportCompleted             ImportStatus = "completed"
	ImportCompletedWithWarnings ImportStatus = "completed_with_warnings"
	ImportPending               ImportStatus = "pending"
	ImportFailed                ImportStatus = "failed"
)

// ParseImportStatus maps the service's wire status onto ImportStatus.
func ParseImportStatus(s string) (ImportStatus, bool) {
	switch s {
	case "completed":
		return ImportCompleted, true
	case "completed-with-warnings", "completed_with_warnings":
		return ImportCompletedWithWarnings, true
	case "pending":
		return ImportPending, true
	case "failed":
		return ImportFailed, true
	}
	return "", false
}

// Terminal reports whether no further transition is possible.
func (s ImportStatus) Terminal() bool {
	return s == ImportCompleted || s == ImportCompletedWithWarnings || s == ImportFailed
}

// NamingOverrides replace fields of the imported document's app block.
type NamingOverrides struct {
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	IconType       string `json:"icon_type,omitempty"`
	Icon           string `json:"icon,omitempty"`
	IconBackground string `json:"icon_background,omitempty"`
	AppID          string `json:"app_id,omitempty"`
}

// ImportDependency is a dependency the target reported for an import.
type ImportDependency struct {
	Type              string      `json:"type"`
	Value             interface{} `json:"value,omitempty"`
	CurrentIdentifier string      `json:"current_identifier,omitempty"`
	Missing           bool        `json:"missing,omitempty"`
}

// ImportDraft is one import attempt against a target instance.
type ImportDraft struct {
	ImportID         string             `json:"import_id,omitempty"`
	SourceContent    string             `json:"-"`
	TargetInstanceID string             `json:"target_instance_id"`
	Overrides        NamingOverrides    `json:"naming_overrides"`
	Status           ImportStatus       `json:"status"`
	ResourceID       string             `json:"resource_id,omitempty"`
	KindTag          string             `json:"kind_tag,omitempty"`
	ImportedVersion  string             `json:"imported_version,omitempty"`
	CurrentVersion   string             `json:"current_version,omitempty"`
	Warnings         []string           `json:"warnings"`
	Dependencies     []ImportDependency `json:"dependencies,omitempty"`
	Error            string             `json:"error,omitempty"`
}

// ImportFile is one file of a batch import.
type ImportFile struct {
	Filename  string          `json:"filename"`
	Content   string          `json:"content"`
	Overrides NamingOverrides `json:"overrides"`
}

// ImportOptions tune a batch import.
type ImportOptions struct {
	OverwriteExisting   bool `json:"overwrite_existing"`
	IgnoreErrors        bool `json:"ignore_errors"`
	CreateNewOnConflict bool `json:"create_new_on_conflict"`
	ServerSide          bool `json:"server_side"`
}

// BatchImportItem is the outcome of importing one file.
type BatchImportItem struct {
	Filename   string       `json:"filename"`
	Name       string       `json:"name,omitempty"`
	Success    bool         `json:"success"`
	ResourceID string       `json:"resource_id,omitempty"`
	ImportID   string       `json:"import_id,omitempty"`
	Status     ImportStatus `json:"status,omitempty"`
	Error      string       `json:"error,omitempty"`
	Warnings   []string     `json:"warnings"`
}

// BatchImportResult aggregates a batch import. Items follow input order and
// SuccessCount+FailedCount+WarningCount always equals TotalCount.
type BatchImportResult struct {
	Items        []BatchImportItem `json:"items"`
	SuccessCount int               `json:"success_count"`
	FailedCount  int               `json:"failed_count"`
	WarningCount int               `json:"warning_count"`
	TotalCount   int               `json:"total_count"`
}

// Tally recomputes the counters from Items.
func (r *BatchImportResult) Tally() {
	r.SuccessCount, r.FailedCount, r.WarningCount = 0, 0, 0
	for _, it := range r.Items {
		switch {
		case !it.Success || it.Status == ImportFailed:
			r.FailedCount++
		case it.Status == ImportCompletedWithWarnings || it.Status == ImportPending:
			r.WarningCount++
		default:
			r.SuccessCount++
		}
	}
	r.TotalCount = len(r.Items)
}
