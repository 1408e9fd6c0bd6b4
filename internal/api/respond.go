package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rflorenc/workflow-transfer-workbench/internal/listing"
	"github.com/rflorenc/workflow-transfer-workbench/internal/transfer"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr picks the status code from the error's type.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

func errorStatus(err error) int {
	var le *listing.ListingError
	switch {
	case errors.Is(err, transfer.ErrUnknownImport):
		return http.StatusNotFound
	case errors.Is(err, transfer.ErrImportNotPending), errors.Is(err, transfer.ErrAlreadySubmitted):
		return http.StatusConflict
	case transfer.IsPrecondition(err):
		return http.StatusBadRequest
	case errors.As(err, &le):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeJSON decodes an optional JSON body into dst. An empty body leaves
// dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid JSON: %w", err)
}
