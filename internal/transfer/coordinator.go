// Package transfer runs batch exports and imports of workflows and tracks
// import drafts that wait for confirmation.
package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rflorenc/workflow-transfer-workbench/internal/dsl"
	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

// DefaultConcurrency bounds the per-item imports of a batch.
const DefaultConcurrency = 4

// Service is the remote surface the coordinator drives.
type Service interface {
	Importer
	ExportApp(ctx context.Context, appID string, includeSecret bool) (string, error)
	BatchExport(ctx context.Context, req remote.BatchExportRequest) (*remote.BatchExportResponse, error)
	BatchImport(ctx context.Context, req remote.BatchImportRequest) (*remote.BatchImportResponse, error)
}

// TargetLookup tells whether a target instance id exists.
type TargetLookup interface {
	Has(id string) bool
}

// ExportRequest describes a batch export.
type ExportRequest struct {
	IDs            []string            `json:"ids"`
	IncludeSecrets bool                `json:"include_secret"`
	Format         models.ExportFormat `json:"format"`
}

// ImportSource is the input of a single import.
type ImportSource struct {
	Content   string                 `json:"content"`
	Overrides models.NamingOverrides `json:"overrides"`
}

// Coordinator runs batch operations against the workflow service.
type Coordinator struct {
	svc         Service
	targets     TargetLookup
	concurrency int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*ImportSession // by import id
}

// NewCoordinator creates a coordinator. targets may be nil, in which case
// any non-empty target id is accepted.
func NewCoordinator(svc Service, targets TargetLookup, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{
		svc:         svc,
		targets:     targets,
		concurrency: concurrency,
		now:         time.Now,
		sessions:    make(map[string]*ImportSession),
	}
}

func (c *Coordinator) checkTarget(op, targetID string) error {
	if targetID == "" {
		return precondition(op, ErrNoTargetInstance, "")
	}
	if c.targets != nil && !c.targets.Has(targetID) {
		return precondition(op, ErrNoTargetInstance, "unknown target instance "+targetID)
	}
	return nil
}

// ExportBatch exports ids in one remote call. Items follow the order of the
// (deduplicated) ids; an id the service did not answer for is a failure.
func (c *Coordinator) ExportBatch(ctx context.Context, req ExportRequest, progress func(models.Progress)) (*models.ExportBatchResult, error) {
	if err := c.CheckExport(req.IDs); err != nil {
		return nil, err
	}
	ids := dedupe(req.IDs)
	if req.Format == "" {
		req.Format = models.FormatBundle
	}
	if progress == nil {
		progress = func(models.Progress) {}
	}
	total := len(ids)
	progress(models.Progress{Current: 0, Total: total})

	result := &models.ExportBatchResult{Format: req.Format, Items: make([]models.ExportItemResult, total)}

	resp, err := c.svc.BatchExport(ctx, remote.BatchExportRequest{
		AppIDs:        ids,
		IncludeSecret: req.IncludeSecrets,
		ExportFormat:  req.Format.Wire(),
	})
	if err != nil {
		msg := remote.ErrorMessage(err)
		for i, id := range ids {
			result.Items[i] = models.ExportItemResult{ID: id, Error: msg}
		}
		result.FailedCount = total
		result.TotalCount = total
		progress(models.Progress{Current: 0, Total: total})
		return result, nil
	}

	byID := make(map[string]remote.BatchExportItem, len(resp.Results))
	for _, r := range resp.Results {
		if _, dup := byID[r.AppID]; !dup {
			byID[r.AppID] = r
		}
	}

	for i, id := range ids {
		r, ok := byID[id]
		item := models.ExportItemResult{ID: id}
		switch {
		case !ok:
			item.Error = "not returned by service"
		case !r.Success:
			item.Name = r.WorkflowName
			item.Error = r.Error
			if item.Error == "" {
				item.Error = "export failed"
			}
		default:
			item.Name = r.WorkflowName
			item.Success = true
			item.Filename = r.Filename
			if item.Filename == "" {
				item.Filename = dsl.SafeFilename(r.WorkflowName, id)
			}
			if req.Format == models.FormatPerItem {
				item.Content = r.Data
			}
		}
		if item.Success {
			result.SuccessCount++
		} else {
			result.FailedCount++
		}
		result.Items[i] = item
	}
	result.TotalCount = total

	if req.Format == models.FormatBundle {
		bundle, err := c.decodeBundle(resp)
		if err != nil {
			result.BundleError = err.Error()
		} else {
			result.Bundle = bundle
		}
	}

	progress(models.Progress{Current: result.SuccessCount, Total: total})
	return result, nil
}

func (c *Coordinator) decodeBundle(resp *remote.BatchExportResponse) (*models.ExportBundle, error) {
	if resp.Data == "" {
		return nil, fmt.Errorf("service returned no archive")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	entries := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, f.Name)
	}
	filename := resp.Filename
	if filename == "" {
		filename = BundleFilename(c.now())
	}
	return &models.ExportBundle{Filename: filename, Data: data, Entries: entries}, nil
}

// BundleFilename names an export archive created at t.
func BundleFilename(t time.Time) string {
	return "workflows-export-" + t.Format("20060102_150405") + ".zip"
}

// ExportOne exports a single resource.
func (c *Coordinator) ExportOne(ctx context.Context, id string, includeSecrets bool) (models.ExportItemResult, error) {
	if id == "" {
		return models.ExportItemResult{}, precondition("export", ErrEmptySelection, "")
	}
	item := models.ExportItemResult{ID: id}
	content, err := c.svc.ExportApp(ctx, id, includeSecrets)
	if err != nil {
		item.Error = remote.ErrorMessage(err)
		return item, nil
	}
	if doc, err := dsl.Parse(content); err == nil {
		item.Name = doc.App.Name
	}
	item.Success = true
	item.Content = content
	item.Filename = dsl.SafeFilename(item.Name, id)
	return item, nil
}

// ImportOne submits one document. A pending draft is kept for Confirm.
func (c *Coordinator) ImportOne(ctx context.Context, src ImportSource, targetID string) (models.ImportDraft, error) {
	if err := c.checkTarget("import", targetID); err != nil {
		return models.ImportDraft{}, err
	}
	sess := NewImportSession(src.Content, targetID, src.Overrides)
	draft, err := sess.Submit(ctx, c.svc)
	if err != nil {
		return draft, err
	}
	c.register(sess, draft)
	return draft, nil
}

// Confirm finalizes a pending draft. targetID may be empty to reuse the
// draft's target.
func (c *Coordinator) Confirm(ctx context.Context, importID, targetID string) (models.ImportDraft, error) {
	c.mu.Lock()
	sess, ok := c.sessions[importID]
	c.mu.Unlock()
	if !ok {
		return models.ImportDraft{}, precondition("confirm", ErrUnknownImport, importID)
	}
	if targetID != "" {
		if err := c.checkTarget("confirm", targetID); err != nil {
			return models.ImportDraft{}, err
		}
	}
	return sess.Confirm(ctx, c.svc, targetID)
}

// Draft returns the tracked draft for importID.
func (c *Coordinator) Draft(importID string) (models.ImportDraft, bool) {
	c.mu.Lock()
	sess, ok := c.sessions[importID]
	c.mu.Unlock()
	if !ok {
		return models.ImportDraft{}, false
	}
	return sess.Draft(), true
}

// Pending returns every draft still waiting for confirmation.
func (c *Coordinator) Pending() []models.ImportDraft {
	c.mu.Lock()
	sessions := make([]*ImportSession, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	var out []models.ImportDraft
	for _, s := range sessions {
		if d := s.Draft(); d.Status == models.ImportPending {
			out = append(out, d)
		}
	}
	return out
}

// Resume tracks a pending draft created outside this coordinator, such as
// one left by an earlier run, so that it can be confirmed.
func (c *Coordinator) Resume(importID, targetID string) (models.ImportDraft, error) {
	if importID == "" {
		return models.ImportDraft{}, precondition("resume", ErrUnknownImport, "")
	}
	if err := c.checkTarget("resume", targetID); err != nil {
		return models.ImportDraft{}, err
	}
	if d, ok := c.Draft(importID); ok {
		return d, nil
	}
	sess := resumeSession(models.ImportDraft{
		ImportID:         importID,
		TargetInstanceID: targetID,
		Status:           models.ImportPending,
	})
	c.register(sess, sess.Draft())
	return sess.Draft(), nil
}

func (c *Coordinator) register(sess *ImportSession, d models.ImportDraft) {
	if d.ImportID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[d.ImportID] = sess
}

// ImportBatch imports every file into targetID. Per-file failures are
// recorded on the item and never stop the batch. logger may be nil.
func (c *Coordinator) ImportBatch(ctx context.Context, files []models.ImportFile, targetID string, opts models.ImportOptions, logger func(string), progress func(models.Progress)) (*models.BatchImportResult, error) {
	if err := c.CheckImportBatch(files, targetID); err != nil {
		return nil, err
	}
	logger = syncLogger(logger)
	if progress == nil {
		progress = func(models.Progress) {}
	}
	total := len(files)
	progress(models.Progress{Current: 0, Total: total})

	var result *models.BatchImportResult
	if opts.ServerSide {
		logger(fmt.Sprintf("Submitting %d files to the service batch import...", total))
		result = c.importServerSide(ctx, files, targetID, opts, logger)
	} else {
		result = &models.BatchImportResult{Items: make([]models.BatchImportItem, total)}
		var (
			mu   sync.Mutex
			done int
		)
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i := range files {
			i := i
			g.Go(func() error {
				result.Items[i] = c.importFile(ctx, files[i], targetID, opts, logger)
				mu.Lock()
				done++
				progress(models.Progress{Current: done, Total: total})
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	result.Tally()
	progress(models.Progress{Current: total, Total: total})
	logger(fmt.Sprintf("Batch import finished: %d succeeded, %d with warnings, %d failed (total %d)",
		result.SuccessCount, result.WarningCount, result.FailedCount, result.TotalCount))
	return result, nil
}

func (c *Coordinator) importFile(ctx context.Context, f models.ImportFile, targetID string, opts models.ImportOptions, logger func(string)) models.BatchImportItem {
	filename := f.Filename
	if filename == "" {
		filename = "unknown.yaml"
	}
	item := models.BatchImportItem{Filename: filename, Warnings: []string{}}

	doc, err := dsl.Parse(f.Content)
	if err != nil {
		item.Status = models.ImportFailed
		item.Error = err.Error()
		logFailure(logger, opts, filename, item.Error)
		return item
	}

	ov := mergeOverrides(f.Overrides, doc.App)
	if !opts.OverwriteExisting {
		ov.AppID = ""
	}
	item.Name = ov.Name

	sess := NewImportSession(f.Content, targetID, ov)
	draft, _ := sess.Submit(ctx, c.svc)
	c.register(sess, draft)
	if draft.Status == models.ImportPending && !opts.IgnoreErrors {
		draft, _ = sess.Confirm(ctx, c.svc, targetID)
	}

	item.ImportID = draft.ImportID
	item.ResourceID = draft.ResourceID
	item.Status = draft.Status
	item.Warnings = draft.Warnings
	item.Error = draft.Error
	item.Success = draft.Status != models.ImportFailed

	switch draft.Status {
	case models.ImportFailed:
		logFailure(logger, opts, filename, draft.Error)
	case models.ImportPending:
		logger(fmt.Sprintf("WARN: %s: awaiting confirmation (import %s)", filename, draft.ImportID))
	case models.ImportCompletedWithWarnings:
		logger(fmt.Sprintf("WARN: %s: imported as %s with %d warning(s)", filename, draft.ResourceID, len(draft.Warnings)))
	default:
		logger(fmt.Sprintf("OK: %s: imported as %s", filename, draft.ResourceID))
	}
	return item
}

func (c *Coordinator) importServerSide(ctx context.Context, files []models.ImportFile, targetID string, opts models.ImportOptions, logger func(string)) *models.BatchImportResult {
	req := remote.BatchImportRequest{TargetInstanceID: targetID, ImportOptions: opts}
	for _, f := range files {
		req.Files = append(req.Files, remote.BatchImportFile{
			Filename:    f.Filename,
			Content:     f.Content,
			Name:        f.Overrides.Name,
			Description: f.Overrides.Description,
		})
	}
	req.ImportOptions.ServerSide = false

	result := &models.BatchImportResult{Items: make([]models.BatchImportItem, len(files))}
	resp, err := c.svc.BatchImport(ctx, req)
	for i, f := range files {
		item := models.BatchImportItem{Filename: f.Filename, Warnings: []string{}}
		switch {
		case err != nil:
			item.Status = models.ImportFailed
			item.Error = remote.ErrorMessage(err)
		case i >= len(resp.Results):
			item.Status = models.ImportFailed
			item.Error = "not processed by service"
		default:
			r := resp.Results[i]
			item.Name = r.AppName
			item.ResourceID = r.AppID
			item.ImportID = r.ImportID
			item.Error = r.Error
			if r.Warnings != nil {
				item.Warnings = r.Warnings
			}
			status, ok := models.ParseImportStatus(r.Status)
			switch {
			case !r.Success:
				status = models.ImportFailed
			case !ok:
				status = models.ImportCompleted
			}
			item.Status = status
			item.Success = status != models.ImportFailed
			if status == models.ImportPending && r.ImportID != "" {
				c.register(resumeSession(models.ImportDraft{
					ImportID:         r.ImportID,
					TargetInstanceID: targetID,
					Status:           models.ImportPending,
					ResourceID:       r.AppID,
					Warnings:         item.Warnings,
				}), models.ImportDraft{ImportID: r.ImportID})
			}
		}
		if item.Status == models.ImportFailed {
			if item.Error == "" {
				item.Error = "import failed"
			}
			logFailure(logger, opts, item.Filename, item.Error)
		} else {
			logger(fmt.Sprintf("OK: %s: %s", item.Filename, item.Status))
		}
		result.Items[i] = item
	}
	return result
}

// mergeOverrides fills empty override fields from the document's app block.
func mergeOverrides(ov models.NamingOverrides, app dsl.App) models.NamingOverrides {
	if ov.Name == "" {
		ov.Name = app.Name
	}
	if ov.Description == "" {
		ov.Description = app.Description
	}
	if ov.IconType == "" {
		ov.IconType = app.IconType
	}
	if ov.Icon == "" {
		ov.Icon = app.Icon
	}
	if ov.IconBackground == "" {
		ov.IconBackground = app.IconBackground
	}
	return ov
}

func logFailure(logger func(string), opts models.ImportOptions, filename, msg string) {
	if opts.IgnoreErrors {
		logger(fmt.Sprintf("WARN: ignoring error for %s: %s", filename, msg))
		return
	}
	logger(fmt.Sprintf("FAIL: %s: %s", filename, msg))
}

// syncLogger serializes calls to logger; nil becomes a no-op.
func syncLogger(logger func(string)) func(string) {
	if logger == nil {
		return func(string) {}
	}
	var mu sync.Mutex
	return func(line string) {
		mu.Lock()
		defer mu.Unlock()
		logger(line)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CheckExport reports the precondition failure ExportBatch would return
// for ids, without contacting the service.
func (c *Coordinator) CheckExport(ids []string) error {
	if len(dedupe(ids)) == 0 {
		return precondition("export", ErrEmptySelection, "")
	}
	return nil
}

// CheckImportBatch reports the precondition failure ImportBatch would
// return, without contacting the service.
func (c *Coordinator) CheckImportBatch(files []models.ImportFile, targetID string) error {
	if len(files) == 0 {
		return precondition("batch import", ErrNoFiles, "")
	}
	return c.checkTarget("batch import", targetID)
}
