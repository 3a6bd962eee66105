package webhooks

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHandlerTriggerStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var got capture
	srv := httptest.NewServer(got.handler(http.StatusOK))
	defer srv.Close()

	client := New(map[string]string{LinkedIn: srv.URL}, Options{RatePerSec: 100}, quietLogger())
	r := gin.New()
	NewHandler(client).RegisterRoutes(r.Group("/"))

	cases := []struct {
		name, body string
		want       int
	}{
		{LinkedIn, `{"keywords":"go"}`, http.StatusAccepted},
		{LinkedIn, ``, http.StatusAccepted},
		{LinkedIn, `{not json`, http.StatusBadRequest},
		{"Indeed", ``, http.StatusBadRequest},
		{FranceTravail, ``, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/workflows/"+tc.name, bytes.NewBufferString(tc.body))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("POST /workflows/%s %q: expected %d, got %d", tc.name, tc.body, tc.want, resp.Code)
		}
	}
	client.Wait()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/workflows", nil))
	var listed []workflowStatus
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != len(Workflows) {
		t.Fatalf("expected %d workflows, got %d", len(Workflows), len(listed))
	}
	for _, w := range listed {
		if w.Configured != (w.Name == LinkedIn) {
			t.Fatalf("unexpected configured flag for %s", w.Name)
		}
	}
}
