package transfer

import (
	"fmt"
	"strings"

	"github.com/rflorenc/workflow-transfer-workbench/internal/dsl"
	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

// PreflightItem is the local check result for one file.
type PreflightItem struct {
	Filename string   `json:"filename"`
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	App      *dsl.App `json:"app_info,omitempty"`
	Version  string   `json:"version,omitempty"`
	Name     string   `json:"name,omitempty"` // name the import will use
}

// Preflight summarizes a batch before it is submitted.
type Preflight struct {
	Items      []PreflightItem `json:"items"`
	ValidCount int             `json:"valid_count"`
	TotalCount int             `json:"total_count"`
	Warnings   []string        `json:"warnings"`
}

// PreflightImport validates every file locally without contacting the
// service. logger may be nil.
func PreflightImport(files []models.ImportFile, logger func(string)) (*Preflight, error) {
	if len(files) == 0 {
		return nil, precondition("preflight", ErrNoFiles, "")
	}
	if logger == nil {
		logger = func(string) {}
	}

	pf := &Preflight{Items: make([]PreflightItem, 0, len(files)), Warnings: []string{}}
	byName := make(map[string][]string)
	for _, f := range files {
		item := PreflightItem{Filename: f.Filename}
		doc, err := dsl.Parse(f.Content)
		if err != nil {
			item.Error = err.Error()
			logger(fmt.Sprintf("  %s: %s", f.Filename, item.Error))
			pf.Items = append(pf.Items, item)
			continue
		}
		app := doc.App
		item.Valid = true
		item.App = &app
		item.Version = doc.Version
		item.Name = mergeOverrides(f.Overrides, app).Name
		byName[item.Name] = append(byName[item.Name], f.Filename)
		logger(fmt.Sprintf("  %s: %s (%s)", f.Filename, item.Name, app.Mode))
		pf.ValidCount++
		pf.Items = append(pf.Items, item)
	}
	pf.TotalCount = len(files)

	for _, item := range pf.Items {
		names := byName[item.Name]
		if item.Valid && len(names) > 1 && names[0] == item.Filename {
			pf.Warnings = append(pf.Warnings, fmt.Sprintf(
				"%d files import as %q (%s); each creates its own app unless overwrite is set",
				len(names), item.Name, strings.Join(names, ", ")))
		}
	}
	if invalid := pf.TotalCount - pf.ValidCount; invalid > 0 {
		pf.Warnings = append(pf.Warnings, fmt.Sprintf("%d of %d files failed validation and will be reported as failed", invalid, pf.TotalCount))
	}
	return pf, nil
}
