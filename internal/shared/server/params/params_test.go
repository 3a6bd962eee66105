package params

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/shared/storage/query"
)

var testSchema = query.Schema{
	"company":     {Column: "company"},
	"teleworking": {Column: "teleworking", Kind: query.Bool},
}

var testSorts = []query.SortField{query.SortDate, query.SortCreatedAt}

func contextFor(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestListParsesPagingSortAndFilter(t *testing.T) {
	c := contextFor("/jobs?limit=5&skip=10&sort=created_at&company=Acme&teleworking=true")
	opts, err := List(c, testSchema, testSorts)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if opts.Limit != 5 || opts.Skip != 10 || opts.Sort != query.SortCreatedAt {
		t.Fatalf("unexpected paging: %+v", opts)
	}
	if opts.Filter["company"] != "Acme" || opts.Filter["teleworking"] != "true" || len(opts.Filter) != 2 {
		t.Fatalf("unexpected filter: %v", opts.Filter)
	}
}

func TestListRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"negative limit":  "/jobs?limit=-1",
		"non-int skip":    "/jobs?skip=abc",
		"unknown sort":    "/jobs?sort=salary",
		"disallowed sort": "/jobs?sort=updatedAt",
		"unknown filter":  "/jobs?salary=1000",
		"bad bool":        "/jobs?teleworking=maybe",
		"repeated filter": "/jobs?company=a&company=b",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := List(contextFor(target), testSchema, testSorts); err == nil {
				t.Fatalf("expected %s to be rejected", target)
			}
		})
	}
}

func TestID(t *testing.T) {
	const valid = "2f1b7a8e-8c1d-4c55-9a44-0d5a7e3f6b21"
	cases := []struct {
		param string
		ok    bool
	}{
		{valid, true},
		{"/" + valid, true},
		{strings.ToUpper(valid), true},
		{strings.ReplaceAll(valid, "-", ""), true},
		{"{" + valid + "}", true},
		{"", false},
		{"/", false},
		{valid + "," + valid, false},
		{valid + "/" + valid, false},
		{"not-a-uuid", false},
	}
	for _, tc := range cases {
		c := contextFor("/jobs/x")
		c.Params = gin.Params{{Key: "id", Value: tc.param}}
		got, err := ID(c)
		if tc.ok && (err != nil || got != valid) {
			t.Fatalf("ID(%q) = %q, %v; want %q", tc.param, got, err, valid)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ID(%q) expected error", tc.param)
		}
	}
}
