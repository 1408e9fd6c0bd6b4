package api

import (
	"net/http"
	"strconv"

	"github.com/rflorenc/workflow-transfer-workbench/internal/listing"
)

// ListWorkflows loads a listing page. Query parameters that are absent keep
// the session's current value.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win := s.Listing.View().Window
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be a number")
			return
		}
		win.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page_size must be a number")
			return
		}
		win.PageSize = n
	}
	if q.Has("search") {
		win.Search = q.Get("search")
	}

	view, err := s.Listing.Load(r.Context(), win)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) RefreshWorkflows(w http.ResponseWriter, r *http.Request) {
	view, err := s.Listing.Refresh(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type selectionResponse struct {
	Selected        []string `json:"selected"`
	Count           int      `json:"count"`
	SelectedInPage  []string `json:"selected_in_page"`
	AllPageSelected bool     `json:"all_page_selected"`
}

func (s *Server) writeSelection(w http.ResponseWriter) {
	v := s.Listing.View()
	writeJSON(w, http.StatusOK, selectionResponse{
		Selected:        v.Selected,
		Count:           len(v.Selected),
		SelectedInPage:  v.SelectedInPage,
		AllPageSelected: v.AllPageSelected,
	})
}

func (s *Server) GetSelection(w http.ResponseWriter, r *http.Request) {
	s.writeSelection(w)
}

func (s *Server) ClearSelection(w http.ResponseWriter, r *http.Request) {
	s.Listing.Clear()
	s.writeSelection(w)
}

func (s *Server) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	s.Listing.Toggle(body.ID)
	s.writeSelection(w)
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) SelectIDs(w http.ResponseWriter, r *http.Request) {
	var body idsRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Listing.Select(body.IDs...)
	s.writeSelection(w)
}

func (s *Server) DeselectIDs(w http.ResponseWriter, r *http.Request) {
	var body idsRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Listing.Deselect(body.IDs...)
	s.writeSelection(w)
}

func (s *Server) SelectionPageAction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Action == "" {
		body.Action = listing.PageToggle
	}
	if err := s.Listing.PageAction(body.Action); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeSelection(w)
}
