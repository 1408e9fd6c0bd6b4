package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Jobs.List())
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// startJob runs fn in the background as a job and answers 202 with its id.
func (s *Server) startJob(w http.ResponseWriter, jobType, targetID string, fn func(job *models.Job) (interface{}, error)) {
	job := s.Jobs.Create(jobType, targetID)

	go func() {
		result, err := fn(job)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.Complete(result)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}
