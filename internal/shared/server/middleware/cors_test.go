package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.PUT("/jobs/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestCORS(t *testing.T) {
	const ui = "http://localhost:5173"
	cases := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"preflight from allowed origin", []string{ui}, http.MethodOptions, ui, http.StatusNoContent, ui},
		{"request from allowed origin", []string{ui}, http.MethodPut, ui, http.StatusOK, ui},
		{"unknown origin gets no headers", []string{ui}, http.MethodPut, "http://evil.example", http.StatusOK, ""},
		{"no origin header", []string{ui}, http.MethodPut, "", http.StatusOK, ""},
		{"wildcard echoes origin", []string{"*"}, http.MethodPut, "http://any.example", http.StatusOK, "http://any.example"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/jobs/1", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			resp := httptest.NewRecorder()
			corsRouter(tc.origins...).ServeHTTP(resp, req)

			if resp.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.Code)
			}
			h := resp.Header()
			if got := h.Get("Access-Control-Allow-Origin"); got != tc.wantAllow {
				t.Fatalf("Allow-Origin = %q, want %q", got, tc.wantAllow)
			}
			if tc.wantAllow == "" {
				return
			}
			if h.Get("Access-Control-Allow-Methods") == "" || h.Get("Access-Control-Allow-Headers") == "" {
				t.Fatalf("expected Allow-Methods and Allow-Headers, got %v", h)
			}
			if got := h.Get("Access-Control-Max-Age"); got != "600" {
				t.Fatalf("expected Max-Age 600, got %q", got)
			}
			if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-Id" {
				t.Fatalf("expected X-Request-Id to be exposed, got %q", got)
			}
		})
	}
}
