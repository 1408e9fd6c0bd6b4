package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
	"github.com/rflorenc/workflow-transfer-workbench/internal/transfer"
)

type exportRequest struct {
	IDs           []string `json:"ids"`
	IncludeSecret bool     `json:"include_secret"`
	Format        string   `json:"format"`
}

// RunExport starts a batch export job. Without ids the current selection is
// exported.
func (s *Server) RunExport(w http.ResponseWriter, r *http.Request) {
	var body exportRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := models.ParseExportFormat(body.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ids := body.IDs
	if len(ids) == 0 {
		ids = s.Listing.SelectedIDs()
	}
	if err := s.Transfer.CheckExport(ids); err != nil {
		writeErr(w, err)
		return
	}

	req := transfer.ExportRequest{IDs: ids, IncludeSecrets: body.IncludeSecret, Format: format}
	s.startJob(w, "batch-export", "", func(job *models.Job) (interface{}, error) {
		job.AppendLog(fmt.Sprintf("Exporting %d workflows (%s)...", len(ids), format))
		res, err := s.Transfer.ExportBatch(context.Background(), req, job.SetProgress)
		if err != nil {
			return nil, err
		}
		for _, it := range res.Items {
			if it.Success {
				job.AppendLog(fmt.Sprintf("OK: %s -> %s", it.ID, it.Filename))
			} else {
				job.AppendLog(fmt.Sprintf("FAIL: %s: %s", it.ID, it.Error))
			}
		}
		if res.Bundle != nil {
			job.AppendLog(fmt.Sprintf("Archive %s (%d entries)", res.Bundle.Filename, len(res.Bundle.Entries)))
		}
		if res.BundleError != "" {
			job.AppendLog("WARN: " + res.BundleError)
		}
		job.AppendLog(fmt.Sprintf("Export finished: %d succeeded, %d failed (total %d)",
			res.SuccessCount, res.FailedCount, res.TotalCount))
		return res, nil
	})
}

func (s *Server) ExportOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	includeSecret, _ := strconv.ParseBool(r.URL.Query().Get("include_secret"))
	item, err := s.Transfer.ExportOne(r.Context(), id, includeSecret)
	if err != nil {
		writeErr(w, err)
		return
	}
	status := http.StatusOK
	if !item.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, item)
}

type importRequest struct {
	Content          string                 `json:"content"`
	Overrides        models.NamingOverrides `json:"overrides"`
	TargetInstanceID string                 `json:"target_instance_id"`
}

// ImportOne submits a single document. A draft waiting for confirmation is
// answered with 202.
func (s *Server) ImportOne(w http.ResponseWriter, r *http.Request) {
	var body importRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if body.TargetInstanceID != "" {
		if err := s.ensureTargets(r.Context(), body.TargetInstanceID); err != nil {
			writeError(w, http.StatusBadGateway, "loading target instances: "+remote.ErrorMessage(err))
			return
		}
	}
	draft, err := s.Transfer.ImportOne(r.Context(), transfer.ImportSource{Content: body.Content, Overrides: body.Overrides}, body.TargetInstanceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, draftStatus(draft), draft)
}

func (s *Server) ConfirmImport(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importId")
	var body struct {
		TargetInstanceID string `json:"target_instance_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.TargetInstanceID != "" {
		if err := s.ensureTargets(r.Context(), body.TargetInstanceID); err != nil {
			writeError(w, http.StatusBadGateway, "loading target instances: "+remote.ErrorMessage(err))
			return
		}
	}
	draft, err := s.Transfer.Confirm(r.Context(), importID, body.TargetInstanceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, draftStatus(draft), draft)
}

func (s *Server) ListPendingImports(w http.ResponseWriter, r *http.Request) {
	pending := s.Transfer.Pending()
	if pending == nil {
		pending = []models.ImportDraft{}
	}
	writeJSON(w, http.StatusOK, pending)
}

func draftStatus(d models.ImportDraft) int {
	switch d.Status {
	case models.ImportPending:
		return http.StatusAccepted
	case models.ImportFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

type batchImportRequest struct {
	Files            []models.ImportFile  `json:"files"`
	TargetInstanceID string               `json:"target_instance_id"`
	ImportOptions    models.ImportOptions `json:"import_options"`
}

// RunBatchImport starts a batch import job after checking its preconditions.
func (s *Server) RunBatchImport(w http.ResponseWriter, r *http.Request) {
	var body batchImportRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.TargetInstanceID != "" {
		if err := s.ensureTargets(r.Context(), body.TargetInstanceID); err != nil {
			writeError(w, http.StatusBadGateway, "loading target instances: "+remote.ErrorMessage(err))
			return
		}
	}
	if err := s.Transfer.CheckImportBatch(body.Files, body.TargetInstanceID); err != nil {
		writeErr(w, err)
		return
	}

	s.startJob(w, "batch-import", body.TargetInstanceID, func(job *models.Job) (interface{}, error) {
		job.AppendLog(fmt.Sprintf("Importing %d files into %s...", len(body.Files), body.TargetInstanceID))
		return s.Transfer.ImportBatch(context.Background(), body.Files, body.TargetInstanceID,
			body.ImportOptions, job.AppendLog, job.SetProgress)
	})
}

func (s *Server) PreflightImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Files []models.ImportFile `json:"files"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pf, err := transfer.PreflightImport(body.Files, nil)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pf)
}

// ValidateFile asks the workflow service to validate one document.
func (s *Server) ValidateFile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	res, err := s.Remote.ValidateFile(r.Context(), body.Content)
	if err != nil {
		writeError(w, http.StatusBadGateway, "validation failed: "+remote.ErrorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
