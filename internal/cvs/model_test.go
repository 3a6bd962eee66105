package cvs

import (
	"reflect"
	"testing"
	"time"

	"jobtracker/internal/shared/storage/query"
)

func TestDedupeSkills(t *testing.T) {
	got := DedupeSkills([]string{"Go", " go ", "SQL", "", "Docker", "sql", "docker "})
	want := []string{"Go", "SQL", "Docker"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeSkills = %v, want %v", got, want)
	}
	if DedupeSkills(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestCompareDefaultsToCreatedAt(t *testing.T) {
	now := time.Now().UTC()
	older := CV{ID: "a", CreatedAt: now.Add(-time.Hour), UpdatedAt: now}
	newer := CV{ID: "b", CreatedAt: now, UpdatedAt: now.Add(-time.Hour)}

	if Compare(newer, older, "") >= 0 {
		t.Fatalf("expected newer createdAt first")
	}
	if Compare(older, newer, query.SortUpdatedAt) >= 0 {
		t.Fatalf("expected newer updatedAt first")
	}
	if Compare(CV{}, newer, query.SortCreatedAt) <= 0 {
		t.Fatalf("expected missing createdAt last")
	}
}
