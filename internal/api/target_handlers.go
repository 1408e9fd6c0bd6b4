package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

// loadTargets refreshes the target store from the service.
func (s *Server) loadTargets(ctx context.Context) error {
	list, err := s.Remote.ListTargetInstances(ctx)
	if err != nil {
		return err
	}
	s.Targets.Replace(list)
	return nil
}

// ensureTargets reloads the target list when nothing is known yet or when
// one of ids is missing from it. Instances added on the service after the
// last load become usable without a restart.
func (s *Server) ensureTargets(ctx context.Context, ids ...string) error {
	if len(s.Targets.IDs()) == 0 {
		return s.loadTargets(ctx)
	}
	for _, id := range ids {
		if id != "" && !s.Targets.Has(id) {
			return s.loadTargets(ctx)
		}
	}
	return nil
}

func (s *Server) ListTargets(w http.ResponseWriter, r *http.Request) {
	if err := s.loadTargets(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "loading target instances: "+remote.ErrorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"instances": s.Targets.List()})
}

// TestTargets probes the given ids, or every known instance when none are
// given. It answers once every probe has settled.
func (s *Server) TestTargets(w http.ResponseWriter, r *http.Request) {
	var body idsRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ensureTargets(r.Context(), body.IDs...); err != nil {
		writeError(w, http.StatusBadGateway, "loading target instances: "+remote.ErrorMessage(err))
		return
	}
	ids := body.IDs
	if len(ids) == 0 {
		ids = s.Targets.IDs()
	}
	results := s.Prober.WithRecorder(s.Targets).ProbeAll(r.Context(), ids)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"instances": s.Targets.List(),
	})
}

func (s *Server) TestTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ensureTargets(r.Context(), id); err != nil {
		writeError(w, http.StatusBadGateway, "loading target instances: "+remote.ErrorMessage(err))
		return
	}
	if !s.Targets.Has(id) {
		writeError(w, http.StatusNotFound, "target instance not found")
		return
	}
	status := s.Prober.WithRecorder(s.Targets).Probe(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"instance_id": id, "status": status})
}
