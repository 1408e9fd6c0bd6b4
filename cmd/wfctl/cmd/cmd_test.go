package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
	"github.com/rflorenc/workflow-transfer-workbench/internal/remote"
)

const botDoc = "version: \"0.1.5\"\nkind: app\napp:\n  name: Support Bot\n  mode: workflow\n"

func newFakeService(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var confirmed []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /target-instances", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"instances":[{"id":"prod","name":"Production","url":"https://prod","is_default":true},{"id":"lab","name":"Lab Cluster","url":"https://lab"}]}`))
	})
	mux.HandleFunc("POST /target-instances/{id}/test", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"instance_id":%q,"status":"connected"}`, r.PathValue("id"))
	})
	mux.HandleFunc("POST /workflows/batch-export", func(w http.ResponseWriter, r *http.Request) {
		var req remote.BatchExportRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := remote.BatchExportResponse{ExportFormat: req.ExportFormat, TotalCount: len(req.AppIDs)}
		for _, id := range req.AppIDs {
			if id == "missing" {
				resp.Results = append(resp.Results, remote.BatchExportItem{AppID: id, Error: "app not found"})
				continue
			}
			resp.Results = append(resp.Results, remote.BatchExportItem{AppID: id, Success: true, Data: botDoc, Filename: id + ".yml", WorkflowName: "Support Bot"})
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /workflows/import", func(w http.ResponseWriter, r *http.Request) {
		var req remote.ImportRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"id":"imp-%s","status":"pending"}`, req.TargetInstanceID)
	})
	mux.HandleFunc("POST /workflows/import/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		confirmed = append(confirmed, r.PathValue("id"))
		w.Write([]byte(`{"status":"completed","app_id":"new-app"}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &confirmed
}

// run executes wfctl with args against a clean set of flag values.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, serviceURL, jsonOut = "", "", false
	listPage, listPageSize, listSearch, listRefresh = 1, 0, "", false
	targetsTest = false
	exportIncludeSecret, exportFormat, exportOutput = false, "bundle", "."
	importTarget, importName, importDryRun = "", "", false
	importOptions = models.ImportOptions{}
	confirmTarget = ""
	validateRemote = false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestValidateLocal(t *testing.T) {
	out, err := run(t, "validate", writeFile(t, "bot.yml", botDoc))
	require.NoError(t, err)
	assert.Contains(t, out, "Support Bot (workflow, version 0.1.5)")

	_, err = run(t, "validate", writeFile(t, "bad.yml", "app:\n  mode: workflow\n"))
	assert.ErrorContains(t, err, "app name is empty")
}

func TestExportPerItem(t *testing.T) {
	ts, _ := newFakeService(t)
	dir := t.TempDir()

	out, err := run(t, "export", "--service-url", ts.URL, "--format", "per-item", "-o", dir, "app-1", "missing")
	assert.ErrorContains(t, err, "1 of 2 exports failed")
	assert.Contains(t, out, "OK: app-1 (Support Bot)")
	assert.Contains(t, out, "FAIL: missing: app not found")

	data, err := os.ReadFile(filepath.Join(dir, "app-1.yml"))
	require.NoError(t, err)
	assert.Equal(t, botDoc, string(data))
}

func TestTargetsTest(t *testing.T) {
	ts, _ := newFakeService(t)

	out, err := run(t, "targets", "--service-url", ts.URL, "--test", "--json")
	require.NoError(t, err)

	var list []models.TargetInstance
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	for _, ti := range list {
		assert.Equal(t, models.StatusConnected, ti.Status, ti.ID)
	}
}

func TestImportPendingThenConfirm(t *testing.T) {
	ts, confirmed := newFakeService(t)
	file := writeFile(t, "bot.yml", botDoc)

	// the target is resolved by a fuzzy name match
	out, err := run(t, "import", "--service-url", ts.URL, "--target", "cluster", "--ignore-errors", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Importing 1 files into Lab Cluster (lab)")
	assert.Contains(t, out, "wfctl confirm imp-lab --target lab")
	assert.Empty(t, *confirmed)

	out, err = run(t, "confirm", "--service-url", ts.URL, "--target", "lab", "imp-lab")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: imported as new-app")
	assert.Equal(t, []string{"imp-lab"}, *confirmed)
}

func TestImportDryRun(t *testing.T) {
	out, err := run(t, "import", "--dry-run", writeFile(t, "bot.yml", botDoc), writeFile(t, "bad.yml", "not: [valid"))
	require.NoError(t, err)
	assert.Contains(t, out, "OK: bot.yml: Support Bot (workflow)")
	assert.Contains(t, out, "FAIL: bad.yml")
	assert.Contains(t, out, "1 of 2 files valid")
}

func TestImportUnknownTarget(t *testing.T) {
	ts, _ := newFakeService(t)
	_, err := run(t, "import", "--service-url", ts.URL, "--target", "staging", writeFile(t, "bot.yml", botDoc))
	assert.ErrorContains(t, err, `target instance "staging" not found`)
}

func TestImportCreateNewOnConflictNeedsServerSide(t *testing.T) {
	ts, _ := newFakeService(t)
	_, err := run(t, "import", "--service-url", ts.URL, "--create-new-on-conflict", writeFile(t, "bot.yml", botDoc))
	assert.ErrorContains(t, err, "--create-new-on-conflict requires --server-side")
}
