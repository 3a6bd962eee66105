package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/shared/server/respond"
	"jobtracker/internal/shared/storage/query"
)

// countingRepo records how many calls reach storage.
type countingRepo struct {
	Repo
	calls atomic.Int32
}

func (r *countingRepo) GetAll(ctx context.Context, opts query.Options) ([]Job, error) {
	r.calls.Add(1)
	return r.Repo.GetAll(ctx, opts)
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (*Job, error) {
	r.calls.Add(1)
	return r.Repo.GetByID(ctx, id)
}

func (r *countingRepo) Update(ctx context.Context, id string, patch Patch) (*Job, error) {
	r.calls.Add(1)
	return r.Repo.Update(ctx, id, patch)
}

func (r *countingRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.calls.Add(1)
	return r.Repo.Delete(ctx, id)
}

func newTestRouter(t *testing.T) (*gin.Engine, *countingRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := &countingRepo{Repo: NewMemoryRepo()}
	r := gin.New()
	NewHandler(NewService(repo, &recordedTrigger{})).RegisterRoutes(r.Group("/"))
	return r, repo
}

func do(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) respond.ErrorResponse {
	t.Helper()
	var body respond.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error == "" || body.Code == "" {
		t.Fatalf("expected error and code, got %+v", body)
	}
	return body
}

func TestHandlerCRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := do(r, http.MethodGet, "/jobs", nil)
	if resp.Code != http.StatusOK || bytes.TrimSpace(resp.Body.Bytes())[0] != '[' {
		t.Fatalf("expected empty array, got %d %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodPost, "/jobs", map[string]any{"title": "Go dev", "company": "Acme", "date": "2024-06-01"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", resp.Code, resp.Body.String())
	}
	var created Job
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" || created.ProcessingStage != StageInitialized {
		t.Fatalf("unexpected created job: %+v", created)
	}

	resp = do(r, http.MethodGet, "/jobs/"+created.ID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}
	for _, alias := range []string{strings.ToUpper(created.ID), strings.ReplaceAll(created.ID, "-", "")} {
		if resp := do(r, http.MethodGet, "/jobs/"+alias, nil); resp.Code != http.StatusOK {
			t.Fatalf("get %s: expected 200, got %d", alias, resp.Code)
		}
	}

	resp = do(r, http.MethodPut, "/jobs/"+created.ID, map[string]any{"location": "Paris", "processing_stage": "source_processed"})
	if resp.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d %s", resp.Code, resp.Body.String())
	}
	var updated Job
	_ = json.NewDecoder(resp.Body).Decode(&updated)
	if updated.Location != "Paris" || updated.Title != "Go dev" || updated.ProcessingStage != StageSourceProcessed {
		t.Fatalf("unexpected update: %+v", updated)
	}

	resp = do(r, http.MethodPost, "/jobs/"+created.ID+"/stage", map[string]any{"processing_stage": "initialized"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("stage regression: expected 400, got %d", resp.Code)
	}

	resp = do(r, http.MethodPost, "/jobs/"+created.ID+"/enrich", nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("enrich: expected 202, got %d %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodDelete, "/jobs/"+created.ID, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.Code)
	}

	resp = do(r, http.MethodGet, "/jobs/"+created.ID, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Code != "not_found" {
		t.Fatalf("unexpected code %q", body.Code)
	}

	resp = do(r, http.MethodDelete, "/jobs/"+created.ID, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("delete deleted: expected 404, got %d", resp.Code)
	}
}

func TestHandlerRejectsMalformedIDWithoutStorage(t *testing.T) {
	r, repo := newTestRouter(t)
	targets := []struct{ method, path string }{
		{http.MethodGet, "/jobs/"},
		{http.MethodPut, "/jobs/"},
		{http.MethodDelete, "/jobs/"},
		{http.MethodGet, "/jobs/not-a-uuid"},
		{http.MethodGet, "/jobs/0b8a3c8e-5a4e-4c1f-9b7a-2f9d6c1e4a10,0b8a3c8e-5a4e-4c1f-9b7a-2f9d6c1e4a11"},
	}
	for _, tc := range targets {
		resp := do(r, tc.method, tc.path, map[string]any{"title": "x"})
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d", tc.method, tc.path, resp.Code)
		}
		decodeError(t, resp)
	}
	if n := repo.calls.Load(); n != 0 {
		t.Fatalf("expected no storage access, got %d calls", n)
	}
}

func TestHandlerCreateValidatesBody(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := map[string]any{
		"missing company":  map[string]any{"title": "Go dev"},
		"unknown field":    map[string]any{"title": "Go dev", "company": "Acme", "salaryy": 1},
		"bad stage":        map[string]any{"title": "Go dev", "company": "Acme", "processing_stage": "ai_processed"},
		"bad date":         map[string]any{"title": "Go dev", "company": "Acme", "date": "yesterday"},
		"trailing garbage": map[string]any{"title": "Go dev", "company": "Acme", "date": "2024-01-01garbage"},
		"bad offset":       map[string]any{"title": "Go dev", "company": "Acme", "date": "2024-01-01T10:00:00+0200"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(r, http.MethodPost, "/jobs", body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d %s", resp.Code, resp.Body.String())
			}
			if got := decodeError(t, resp); got.Code != "validation_error" {
				t.Fatalf("unexpected code %q", got.Code)
			}
		})
	}
}

func TestHandlerListQueryValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, target := range []string{"/jobs?limit=-5", "/jobs?sort=salary", "/jobs?unknown=1"} {
		if resp := do(r, http.MethodGet, target, nil); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.Code)
		}
	}
	resp := do(r, http.MethodGet, "/count/jobs?company=Acme", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("count: expected 200, got %d", resp.Code)
	}
}
