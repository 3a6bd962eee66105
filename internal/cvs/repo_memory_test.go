package cvs

import (
	"context"
	"testing"
	"time"

	"jobtracker/internal/shared/storage/query"
)

func TestMemoryRepoListAndCount(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	repo.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Hour)
	}

	for _, cv := range []CV{
		{Title: "Backend", City: "Lyon", DrivingLicense: true},
		{Title: "Frontend", City: "Paris"},
		{Title: "Data", City: "Lyon"},
	} {
		if _, err := repo.Create(ctx, cv); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	lyon, err := repo.GetAll(ctx, query.Options{Filter: query.Filter{"city": "Lyon"}})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(lyon) != 2 || lyon[0].Title != "Data" || lyon[1].Title != "Backend" {
		t.Fatalf("unexpected order: %+v", lyon)
	}

	n, err := repo.Count(ctx, query.Filter{"driving_license": "true"})
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v; want 1", n, err)
	}
	total, err := repo.Count(ctx, nil)
	if err != nil || total != 3 {
		t.Fatalf("Count(all) = %d, %v; want 3", total, err)
	}
}

func TestMemoryRepoUpdateReplacesNestedLists(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	created, err := repo.Create(ctx, CV{Title: "Backend", Experiences: []Experience{{Title: "Dev"}, {Title: "Lead"}}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	exps := []Experience{{Title: "CTO", Company: "Acme"}}
	updated, err := repo.Update(ctx, created.ID, Patch{Experiences: &exps})
	if err != nil || updated == nil {
		t.Fatalf("Update = %v, %v", updated, err)
	}
	if len(updated.Experiences) != 1 || updated.Experiences[0].Title != "CTO" || updated.Title != "Backend" {
		t.Fatalf("unexpected update: %+v", updated)
	}
}

func TestMemoryRepoReturnsIndependentCopies(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	created, err := repo.Create(ctx, CV{Title: "Backend", Skills: []string{"Go"}, Links: []Link{{Label: "gh", URL: "https://example.com"}}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created.Skills[0] = "COBOL"
	created.Links[0].URL = "https://evil.example"

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID = %v, %v", got, err)
	}
	if got.Skills[0] != "Go" || got.Links[0].URL != "https://example.com" {
		t.Fatalf("stored cv changed through a returned copy: %+v", got)
	}
}
