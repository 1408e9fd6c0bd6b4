package api

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/rflorenc/workflow-transfer-workbench/internal/listing"
	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/probe"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
	"github.com/rflorenc/workflow-transfer-workbench/internal/transfer"
)

// Remote is the part of the workflow service the handlers call directly.
type Remote interface {
	ListTargetInstances(ctx context.Context) ([]models.TargetInstance, error)
	ValidateFile(ctx context.Context, content string) (*remote.ValidationResult, error)
}

// Server holds shared state for all API handlers.
type Server struct {
	Remote   Remote
	Listing  *listing.Session
	Targets  *models.TargetStore
	Prober   *probe.Prober
	Transfer *transfer.Coordinator
	Jobs     *models.JobStore
}

// NewRouter builds the chi router with all API routes. webFS may be nil, in
// which case no frontend is served.
func NewRouter(s *Server, webFS fs.FS) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(newCORS().Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Listing and selection
		r.Get("/workflows", s.ListWorkflows)
		r.Post("/workflows/refresh", s.RefreshWorkflows)
		r.Get("/selection", s.GetSelection)
		r.Delete("/selection", s.ClearSelection)
		r.Post("/selection/toggle", s.ToggleSelection)
		r.Post("/selection/select", s.SelectIDs)
		r.Post("/selection/deselect", s.DeselectIDs)
		r.Post("/selection/page", s.SelectionPageAction)

		// Target instances
		r.Get("/targets", s.ListTargets)
		r.Post("/targets/test", s.TestTargets)
		r.Post("/targets/{id}/test", s.TestTarget)

		// Export
		r.Post("/export", s.RunExport)
		r.Get("/export/{id}", s.ExportOne)

		// Import
		r.Post("/import", s.ImportOne)
		r.Get("/import/pending", s.ListPendingImports)
		r.Post("/import/batch", s.RunBatchImport)
		r.Post("/import/preflight", s.PreflightImport)
		r.Post("/import/{importId}/confirm", s.ConfirmImport)
		r.Post("/validate", s.ValidateFile)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	if webFS != nil {
		r.Get("/*", spaHandler(webFS))
	}
	return r
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}

// spaHandler serves files from webFS and falls back to index.html for
// client-side routes.
func spaHandler(webFS fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		if path == "/" {
			path = "/index.html"
		}

		// Try to serve the actual file (JS, CSS, fonts, etc.)
		f, err := webFS.Open(path[1:])
		if err == nil {
			f.Close()
			http.ServeFileFS(w, req, webFS, path[1:])
			return
		}

		http.ServeFileFS(w, req, webFS, "index.html")
	}
}
