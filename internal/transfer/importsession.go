package transfer

import (
	"context"
	"sync"

	"github.com/rflorenc/workflow-transfer-workbench/internal/dsl"
	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

// Importer is the remote surface an ImportSession drives.
type Importer interface {
	SubmitImport(ctx context.Context, req remote.ImportRequest) (*remote.ImportResponse, error)
	ConfirmImport(ctx context.Context, importID, targetInstanceID string) (*remote.ImportResponse, error)
}

// ImportSession walks one draft through submitted, pending and its
// terminal states. The draft is only changed under mu; mu is released
// while the remote call runs and busy keeps a second transition out.
type ImportSession struct {
	mu    sync.Mutex
	draft models.ImportDraft
	busy  bool
}

// NewImportSession creates a session in the submitted state.
func NewImportSession(content, targetInstanceID string, overrides models.NamingOverrides) *ImportSession {
	return &ImportSession{draft: models.ImportDraft{
		SourceContent:    content,
		TargetInstanceID: targetInstanceID,
		Overrides:        overrides,
		Status:           models.ImportSubmitted,
		Warnings:         []string{},
	}}
}

// resumeSession rebuilds a session for a draft created elsewhere, such as
// a pending item of a server-side batch.
func resumeSession(d models.ImportDraft) *ImportSession {
	if d.Warnings == nil {
		d.Warnings = []string{}
	}
	return &ImportSession{draft: d}
}

// Draft returns a copy of the current draft.
func (s *ImportSession) Draft() models.ImportDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDraft(s.draft)
}

// Submit sends the draft to the target. Remote failures end in the failed
// state; the error return is only for a session that is not in submitted.
func (s *ImportSession) Submit(ctx context.Context, svc Importer) (models.ImportDraft, error) {
	s.mu.Lock()
	if s.busy || s.draft.Status != models.ImportSubmitted {
		d := copyDraft(s.draft)
		s.mu.Unlock()
		return d, precondition("submit", ErrAlreadySubmitted, d.ImportID)
	}
	s.busy = true
	req := remote.NewImportRequest(s.draft.SourceContent, s.draft.TargetInstanceID, s.draft.Overrides)
	s.mu.Unlock()

	resp, err := svc.SubmitImport(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.applySubmit(resp, err)
	return copyDraft(s.draft), nil
}

// Confirm finalizes a pending draft. targetInstanceID may be empty to reuse
// the draft's own target.
func (s *ImportSession) Confirm(ctx context.Context, svc Importer, targetInstanceID string) (models.ImportDraft, error) {
	s.mu.Lock()
	if s.busy || s.draft.Status != models.ImportPending {
		d := copyDraft(s.draft)
		s.mu.Unlock()
		return d, precondition("confirm", ErrImportNotPending, string(d.Status))
	}
	s.busy = true
	if targetInstanceID == "" {
		targetInstanceID = s.draft.TargetInstanceID
	}
	importID := s.draft.ImportID
	s.mu.Unlock()

	resp, err := svc.ConfirmImport(ctx, importID, targetInstanceID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.applyConfirm(resp, err)
	return copyDraft(s.draft), nil
}

func (s *ImportSession) applySubmit(resp *remote.ImportResponse, err error) {
	d := &s.draft
	if err != nil {
		d.Status = models.ImportFailed
		d.Error = remote.ErrorMessage(err)
		return
	}
	d.ImportID = resp.ID()
	d.ResourceID = resp.AppID
	d.KindTag = resp.AppMode
	d.ImportedVersion = resp.ImportedDSLVersion
	d.CurrentVersion = resp.CurrentDSLVersion
	d.Dependencies = resp.Dependencies
	d.Warnings = append(d.Warnings, resp.Warnings...)

	if resp.Pending() {
		if d.ImportID == "" {
			d.Status = models.ImportFailed
			d.Error = "target asked for confirmation without an import id"
			return
		}
		d.Status = models.ImportPending
		if w := dsl.CompatibilityWarning(d.ImportedVersion, d.CurrentVersion); w != "" {
			d.Warnings = append(d.Warnings, w)
		}
		return
	}
	s.finish(resp)
}

func (s *ImportSession) applyConfirm(resp *remote.ImportResponse, err error) {
	d := &s.draft
	if err != nil {
		d.Status = models.ImportFailed
		d.Error = remote.ErrorMessage(err)
		return
	}
	if resp.AppID != "" {
		d.ResourceID = resp.AppID
	}
	if resp.AppMode != "" {
		d.KindTag = resp.AppMode
	}
	d.Warnings = append(d.Warnings, resp.Warnings...)
	if resp.Pending() {
		d.Status = models.ImportFailed
		d.Error = "target still reports the import as pending"
		return
	}
	s.finish(resp)
}

// finish moves the draft to a terminal state from a final answer.
func (s *ImportSession) finish(resp *remote.ImportResponse) {
	d := &s.draft
	status, ok := models.ParseImportStatus(resp.Status)
	switch {
	case resp.Error != "" && (!ok || status == models.ImportFailed):
		d.Status = models.ImportFailed
		d.Error = resp.Error
	case !ok:
		d.Status = models.ImportCompleted
	default:
		d.Status = status
	}
	if d.Status == models.ImportFailed && d.Error == "" {
		d.Error = "import failed"
	}
	if d.Status == models.ImportCompleted && len(d.Warnings) > 0 {
		d.Status = models.ImportCompletedWithWarnings
	}
}

func copyDraft(d models.ImportDraft) models.ImportDraft {
	cp := d
	cp.Warnings = append([]string{}, d.Warnings...)
	if d.Dependencies != nil {
		cp.Dependencies = append([]models.ImportDependency(nil), d.Dependencies...)
	}
	return cp
}
