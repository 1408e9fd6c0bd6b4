package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"

	"github.com/rflorenc/workflow-transfer-workbench/internal/api"
	"github.com/rflorenc/workflow-transfer-workbench/internal/config"
	"github.com/rflorenc/workflow-transfer-workbench/internal/listing"
	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/probe"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
	"github.com/rflorenc/workflow-transfer-workbench/internal/transfer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("workbench %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		}
	}

	cfg := config.Parse()
	client := remote.NewClient(cfg.Service)
	targets := models.NewTargetStore()
	prober := probe.New(client, cfg.Probe.Timeout).WithRecorder(targets)

	server := &api.Server{
		Remote:   client,
		Listing:  listing.NewSession(listing.NewCursor(client, cfg.Listing.PageSize)),
		Targets:  targets,
		Prober:   prober,
		Transfer: transfer.NewCoordinator(client, targets, cfg.Transfer.Concurrency),
		Jobs:     models.NewJobStore(),
	}

	fmt.Printf("Workflow service: %s\n", client.BaseURL())

	// Load target instances and verify each one early
	ctx := context.Background()
	list, err := client.ListTargetInstances(ctx)
	if err != nil {
		fmt.Printf("  TARGETS FAILED: %s\n", remote.ErrorMessage(err))
	} else {
		targets.Replace(list)
		for _, ti := range targets.List() {
			fmt.Printf("Loaded target instance: %s (%s)\n", ti.Name, ti.BaseURL)
		}
		for id, status := range prober.ProbeAll(ctx, targets.IDs()) {
			if status == models.StatusConnected {
				fmt.Printf("  PROBE OK: %s: %s\n", id, status)
			} else {
				fmt.Printf("  PROBE FAILED: %s: %s\n", id, status)
			}
		}
	}

	var webFS fs.FS
	if cfg.WebDir != "" {
		webFS = os.DirFS(cfg.WebDir)
	}

	var handler http.Handler
	if cfg.DevProxy != "" {
		handler, err = devRouter(server, cfg.DevProxy)
		if err != nil {
			log.Fatal("Invalid dev proxy URL: ", err)
		}
	} else {
		handler = api.NewRouter(server, webFS)
	}

	fmt.Printf("Workflow Transfer Workbench %s starting on %s\n", version, cfg.Listen)
	if cfg.DevProxy != "" {
		fmt.Printf("Dev mode: proxying frontend to %s\n", cfg.DevProxy)
	}
	fmt.Printf("Open http://localhost%s in your browser\n", cfg.Listen)

	if err := http.ListenAndServe(cfg.Listen, handler); err != nil {
		log.Fatal(err)
	}
}

// devRouter serves API routes directly and proxies everything else to a
// frontend dev server.
func devRouter(server *api.Server, target string) (http.Handler, error) {
	apiRouter := api.NewRouter(server, nil)

	devURL, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	proxy := httputil.NewSingleHostReverseProxy(devURL)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api") || strings.HasPrefix(r.URL.Path, "/ws") {
			apiRouter.ServeHTTP(w, r)
			return
		}
		proxy.ServeHTTP(w, r)
	}), nil
}
