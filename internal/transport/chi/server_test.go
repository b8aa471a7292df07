package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/unisearch/internal/domain"
	"github.com/kailas-cloud/unisearch/internal/domain/schema"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/unisearch/internal/usecase/health"
)

type fakeSearcher struct {
	payload map[string]any
	err     error
	last    *request.Request
}

func (f *fakeSearcher) Search(_ context.Context, req *request.Request) (map[string]any, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func testParserOptions(t *testing.T) request.ParserOptions {
	t.Helper()
	title, err := schema.NewField("title", schema.Text, nil)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	format, err := schema.NewField("format", schema.Text, nil)
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	dt, err := schema.NewDocumentType("edition", []schema.FieldDefinition{title, format})
	if err != nil {
		t.Fatalf("new document type: %v", err)
	}
	sch, err := schema.New([]schema.DocumentType{dt})
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	return request.ParserOptions{
		Schema:              sch,
		FacetFields:         []string{"format"},
		DefaultReturnFields: []string{"title"},
		MaxCount:            1000,
	}
}

func newTestServer(t *testing.T, searcher Searcher, pinger healthuc.EnginePinger) *httptest.Server {
	t.Helper()
	srv := NewServer(searcher, healthuc.NewService(pinger), testParserOptions(t), zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func TestUnifiedSearch(t *testing.T) {
	searcher := &fakeSearcher{payload: map[string]any{
		"results": []map[string]any{{"title": "Register to vote"}},
		"total":   1,
		"start":   0,
	}}
	ts := newTestServer(t, searcher, &fakePinger{})

	status, body := getJSON(t, ts.URL+"/unified_search?q=vote&count=5")
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if body["total"] != float64(1) {
		t.Errorf("unexpected total: %v", body["total"])
	}
	results := body["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("unexpected results: %v", results)
	}

	if searcher.last == nil {
		t.Fatal("searcher was not called")
	}
	if searcher.last.Query() != "vote" || searcher.last.Count() != 5 {
		t.Errorf("unexpected parsed request: q=%q count=%d",
			searcher.last.Query(), searcher.last.Count())
	}
}

func TestUnifiedSearch_ValidationFailure(t *testing.T) {
	searcher := &fakeSearcher{}
	ts := newTestServer(t, searcher, &fakePinger{})

	status, body := getJSON(t, ts.URL+"/unified_search?count=chips&order=-aardvark")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", status)
	}
	if body["code"] != "validation_failed" {
		t.Errorf("unexpected code: %v", body["code"])
	}
	problems := body["errors"].([]any)
	if len(problems) != 2 {
		t.Errorf("expected 2 problems, got %v", problems)
	}
	if searcher.last != nil {
		t.Error("searcher should not run on a bad request")
	}
}

func TestUnifiedSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"index not found", domain.ErrIndexNotFound, http.StatusNotFound, "index_not_found"},
		{"query rejected", domain.ErrQueryRejected, http.StatusInternalServerError, "query_rejected"},
		{"upstream down", domain.ErrUpstream, http.StatusServiceUnavailable, "upstream_unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeSearcher{err: tt.err}, &fakePinger{})

			status, body := getJSON(t, ts.URL+"/unified_search?q=vote")
			if status != tt.status {
				t.Errorf("unexpected status: %d", status)
			}
			if body["code"] != tt.code {
				t.Errorf("unexpected code: %v", body["code"])
			}
		})
	}
}

func TestUnifiedSearch_WrappedSentinel(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{
		err: fmt.Errorf("run cascade: %w", domain.ErrUpstream),
	}, &fakePinger{})

	status, body := getJSON(t, ts.URL+"/unified_search?q=vote")
	if status != http.StatusServiceUnavailable {
		t.Errorf("unexpected status: %d", status)
	}
	if body["code"] != "upstream_unavailable" {
		t.Errorf("unexpected code: %v", body["code"])
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{}, &fakePinger{})

	status, body := getJSON(t, ts.URL+"/healthz")
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if body["status"] != string(healthuc.StatusHealthy) {
		t.Errorf("unexpected report status: %v", body["status"])
	}
}

func TestHealthCheck_EngineDown(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{}, &fakePinger{err: errors.New("engine down")})

	status, body := getJSON(t, ts.URL+"/healthz")
	if status != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", status)
	}
	if body["status"] == string(healthuc.StatusHealthy) {
		t.Errorf("expected a non-healthy report, got %v", body)
	}
}
