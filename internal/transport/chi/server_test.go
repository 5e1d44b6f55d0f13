package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/field"
	"github.com/kailas-cloud/docsearch/indexing"
	"github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/registry"
)

// --- fakes ---

type call struct {
	task, app, model string
}

type fakeScheduler struct {
	calls []call
	err   error
}

func (s *fakeScheduler) PurgeAll(context.Context) error {
	s.calls = append(s.calls, call{task: "purge"})
	return s.err
}

func (s *fakeScheduler) RemoveOrphans(_ context.Context, app, name string) error {
	s.calls = append(s.calls, call{"remove_orphans", app, name})
	return s.err
}

func (s *fakeScheduler) Reindex(_ context.Context, app, name string) error {
	s.calls = append(s.calls, call{"reindex", app, name})
	return s.err
}

type fakeHealth struct{ report health.Report }

func (h fakeHealth) Check(context.Context) health.Report { return h.report }

// --- helpers ---

type testServer struct {
	router    chi.Router
	scheduler *fakeScheduler
	toggle    *indexing.Toggle
}

func newTestServer(t *testing.T, report health.Report) *testServer {
	t.Helper()
	reg := registry.New()
	schema := document.NewSchema("ItemDocument").
		Field("name", field.NewText()).
		Field("price", field.NewInteger()).
		MustBuild()
	reg.MustRegister(registry.NewModel("shop", "item"), registry.Entry{Schema: schema, Rank: "-price"})

	ts := &testServer{
		router:    chi.NewRouter(),
		scheduler: &fakeScheduler{},
		toggle:    indexing.NewToggle(true),
	}
	NewServer(ts.scheduler, fakeHealth{report}, reg, ts.toggle, nil).Routes(ts.router)
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

var healthy = health.Report{Status: health.Healthy, Checks: map[string]health.CheckResult{"platform": health.CheckOK}}

// --- tests ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		status health.Status
		want   int
	}{
		{"healthy", health.Healthy, http.StatusOK},
		{"degraded", health.Degraded, http.StatusOK},
		{"unhealthy", health.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, health.Report{Status: tt.status, Checks: map[string]health.CheckResult{}})
			rr := ts.do("GET", "/health", "")
			if rr.Code != tt.want {
				t.Errorf("code = %d, want %d", rr.Code, tt.want)
			}
			var got health.Report
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tt.status {
				t.Errorf("status = %q, want %q", got.Status, tt.status)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	rr := newTestServer(t, healthy).do("GET", "/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["version"] == "" {
		t.Errorf("version missing: %v", got)
	}
}

func TestListModels(t *testing.T) {
	rr := newTestServer(t, healthy).do("GET", "/models", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	var got []ModelResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("models = %+v", got)
	}
	m := got[0]
	if m.Model != "shop.item" || m.Index != "shop_item" || m.Schema != "ItemDocument" || m.Rank != "-price" {
		t.Errorf("model = %+v", m)
	}
	if strings.Join(m.Fields, ",") != "name,price" {
		t.Errorf("fields = %v", m.Fields)
	}
}

func TestTasks(t *testing.T) {
	tests := []struct {
		target string
		want   call
	}{
		{"/tasks/purge", call{task: "purge"}},
		{"/tasks/remove-orphans?app=shop&model=item", call{"remove_orphans", "shop", "item"}},
		{"/tasks/remove-orphans", call{task: "remove_orphans"}},
		{"/tasks/reindex?app=shop&model=item", call{"reindex", "shop", "item"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			ts := newTestServer(t, healthy)
			rr := ts.do("POST", tt.target, "")
			if rr.Code != http.StatusAccepted {
				t.Fatalf("code = %d, body %s", rr.Code, rr.Body)
			}
			if len(ts.scheduler.calls) != 1 || ts.scheduler.calls[0] != tt.want {
				t.Errorf("calls = %+v, want %+v", ts.scheduler.calls, tt.want)
			}
			var resp TaskResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Task != tt.want.task || resp.Status != "scheduled" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestTasks_QueueError(t *testing.T) {
	ts := newTestServer(t, healthy)
	ts.scheduler.err = errors.New("broker down")

	rr := ts.do("POST", "/tasks/reindex", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != CodeUnavailable || strings.Contains(resp.Message, "broker") {
		t.Errorf("response = %+v", resp)
	}
}

func TestIndexing(t *testing.T) {
	ts := newTestServer(t, healthy)

	rr := ts.do("PUT", "/indexing", `{"enabled": false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	if ts.toggle.Enabled() {
		t.Error("indexing still enabled")
	}
	var state IndexingState
	if err := json.NewDecoder(rr.Body).Decode(&state); err != nil || state.Enabled == nil || *state.Enabled {
		t.Errorf("state = %+v, %v", state, err)
	}

	ts.do("PUT", "/indexing", `{"enabled": true}`)
	if !ts.toggle.Enabled() {
		t.Error("indexing not re-enabled")
	}

	rr = ts.do("GET", "/indexing", "")
	if !strings.Contains(rr.Body.String(), `"enabled":true`) {
		t.Errorf("body = %s", rr.Body)
	}
}

func TestIndexing_BadRequest(t *testing.T) {
	ts := newTestServer(t, healthy)
	for _, body := range []string{"{", "{}"} {
		rr := ts.do("PUT", "/indexing", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: code = %d", body, rr.Code)
		}
	}
	if !ts.toggle.Enabled() {
		t.Error("toggle changed on bad request")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := newTestServer(t, healthy).do("GET", "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Errorf("code = %d", rr.Code)
	}
}
