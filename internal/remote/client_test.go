package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rflorenc/workflow-transfer-workbench/internal/config"
	"github.com/rflorenc/workflow-transfer-workbench/internal/models"
)

func newTestClient(ts *httptest.Server, auth config.AuthConfig) *Client {
	return NewClient(config.ServiceConfig{BaseURL: ts.URL + "/", Timeout: 5 * time.Second, Auth: auth})
}

func TestClient_Get_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts, config.AuthConfig{})
	body, err := c.Get(context.Background(), "/ping", nil)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q, want {\"status\":\"ok\"}", string(body))
	}
}

func TestClient_AuthHeaders(t *testing.T) {
	tests := []struct {
		name  string
		auth  config.AuthConfig
		check func(r *http.Request) bool
	}{
		{
			name:  "bearer",
			auth:  config.AuthConfig{Type: config.AuthBearer, Token: "tok"},
			check: func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer tok" },
		},
		{
			name: "basic",
			auth: config.AuthConfig{Type: config.AuthBasic, Username: "admin", Password: "secret"},
			check: func(r *http.Request) bool {
				u, p, ok := r.BasicAuth()
				return ok && u == "admin" && p == "secret"
			},
		},
		{
			name:  "api key default header",
			auth:  config.AuthConfig{Type: config.AuthAPIKey, APIKey: "k1"},
			check: func(r *http.Request) bool { return r.Header.Get("X-API-Key") == "k1" },
		},
		{
			name:  "api key custom header",
			auth:  config.AuthConfig{Type: config.AuthAPIKey, APIKey: "k2", APIKeyHeader: "X-Token"},
			check: func(r *http.Request) bool { return r.Header.Get("X-Token") == "k2" },
		},
		{
			name:  "none",
			auth:  config.AuthConfig{},
			check: func(r *http.Request) bool { return r.Header.Get("Authorization") == "" },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !tc.check(r) {
					t.Errorf("auth headers not as expected: %v", r.Header)
				}
				w.Write([]byte("{}"))
			}))
			defer ts.Close()

			if _, err := newTestClient(ts, tc.auth).Get(context.Background(), "/x", nil); err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
		})
	}
}

func TestClient_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"target instance not found"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts, config.AuthConfig{})
	_, _, err := c.Post(context.Background(), "/workflows/import", map[string]string{"a": "b"})
	if err == nil {
		t.Fatal("Post should return error for 400")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *StatusError", err)
	}
	if se.StatusCode != 400 || se.Method != "POST" || se.Path != "/workflows/import" {
		t.Errorf("StatusError = %+v", se)
	}
	if StatusCode(err) != 400 {
		t.Errorf("StatusCode(err) = %d, want 400", StatusCode(err))
	}
	if got := ErrorMessage(err); got != "target instance not found" {
		t.Errorf("ErrorMessage = %q", got)
	}
}

func TestErrorMessage_Fallback(t *testing.T) {
	if ErrorMessage(nil) != "" {
		t.Error("ErrorMessage(nil) should be empty")
	}
	err := &StatusError{Method: "GET", Path: "/x", StatusCode: 500, Body: []byte("boom")}
	if got := ErrorMessage(err); got != err.Error() {
		t.Errorf("ErrorMessage = %q, want %q", got, err.Error())
	}
}

func TestClient_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(ts, config.AuthConfig{}).Get(ctx, "/slow", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestClient_ListWorkflows(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workflows" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "2" || q.Get("search") != "bot" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
			"workflows": [
				{"id":"w1","app_id":"a1","app_name":"Bot One","node_count":3,"app_mode":"workflow","last_modified":"2024-05-01T10:00:00"},
				{"id":"w2","app_id":"a2","app_name":"Bot Two","app_mode":"chat","last_modified":null}
			],
			"pagination": {"page":2,"page_size":2,"total":5,"total_pages":99},
			"stats": {"workflow":3,"chat":2}
		}`))
	}))
	defer ts.Close()

	res, err := newTestClient(ts, config.AuthConfig{}).ListWorkflows(context.Background(), 2, 2, "bot")
	if err != nil {
		t.Fatalf("ListWorkflows returned error: %v", err)
	}
	p := res.Page
	if len(p.Items) != 2 || p.Items[0].ID != "a1" || p.Items[1].KindTag != "chat" {
		t.Errorf("items = %+v", p.Items)
	}
	if p.TotalPages != 3 || !p.HasNext || !p.HasPrev {
		t.Errorf("pagination = %+v, want total_pages 3 with next and prev", p)
	}
	if res.Stats["workflow"] != 3 {
		t.Errorf("stats = %v", res.Stats)
	}
}

func TestClient_BatchExport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req BatchExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.AppIDs) != 2 || req.ExportFormat != "individual" || !req.IncludeSecret {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(BatchExportResponse{
			ExportFormat: "individual",
			Results: []BatchExportItem{
				{AppID: "a", Success: true, Data: "app: {}", Filename: "a.yml"},
				{AppID: "b", Success: false, Error: "not found"},
			},
			SuccessCount: 1,
			TotalCount:   2,
		})
	}))
	defer ts.Close()

	resp, err := newTestClient(ts, config.AuthConfig{}).BatchExport(context.Background(), BatchExportRequest{
		AppIDs: []string{"a", "b"}, IncludeSecret: true, ExportFormat: "individual",
	})
	if err != nil {
		t.Fatalf("BatchExport returned error: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[1].Error != "not found" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestClient_SubmitImport_Pending(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		json.Unmarshal(body, &req)
		if req["mode"] != "yaml-content" || req["target_instance_id"] != "prod" {
			t.Errorf("request = %s", body)
		}
		if _, ok := req["app_id"]; ok {
			t.Error("empty app_id should be omitted")
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"id":"imp-1","status":"pending","imported_dsl_version":"0.2.0","current_dsl_version":"0.1.5"}`))
	}))
	defer ts.Close()

	req := NewImportRequest("app: {}", "prod", models.NamingOverrides{Name: "Bot"})
	resp, err := newTestClient(ts, config.AuthConfig{}).SubmitImport(context.Background(), req)
	if err != nil {
		t.Fatalf("SubmitImport returned error: %v", err)
	}
	if !resp.Pending() || resp.ID() != "imp-1" || resp.ImportedDSLVersion != "0.2.0" {
		t.Errorf("response = %+v", resp)
	}
}

func TestClient_ConfirmImport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workflows/import/imp-1/confirm" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["target_instance_id"] != "prod" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"import_id":"imp-1","status":"completed","app_id":"new-app"}`))
	}))
	defer ts.Close()

	resp, err := newTestClient(ts, config.AuthConfig{}).ConfirmImport(context.Background(), "imp-1", "prod")
	if err != nil {
		t.Fatalf("ConfirmImport returned error: %v", err)
	}
	if resp.Pending() || resp.AppID != "new-app" {
		t.Errorf("response = %+v", resp)
	}
}

func TestClient_Targets(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/target-instances":
			w.Write([]byte(`{"instances":[{"id":"prod","name":"Production","url":"https://p","auth_type":"bearer","is_default":true}]}`))
		case "/target-instances/prod/test":
			if r.Method != http.MethodPost {
				t.Errorf("method = %s", r.Method)
			}
			w.Write([]byte(`{"instance_id":"prod","status":"connected"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := newTestClient(ts, config.AuthConfig{})
	list, err := c.ListTargetInstances(context.Background())
	if err != nil {
		t.Fatalf("ListTargetInstances returned error: %v", err)
	}
	if len(list) != 1 || !list[0].IsDefault || list[0].Status != models.StatusUnknown {
		t.Errorf("instances = %+v", list)
	}
	status, err := c.TestTargetInstance(context.Background(), "prod")
	if err != nil || status != "connected" {
		t.Errorf("TestTargetInstance = (%q, %v)", status, err)
	}
}

func TestClient_ValidateFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid":false,"error":"missing app"}`))
	}))
	defer ts.Close()

	res, err := newTestClient(ts, config.AuthConfig{}).ValidateFile(context.Background(), "foo: bar")
	if err != nil {
		t.Fatalf("ValidateFile returned error: %v", err)
	}
	if res.Valid || res.Error != "missing app" {
		t.Errorf("result = %+v", res)
	}
}
