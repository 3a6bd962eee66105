package jobs

import (
	"time"

	"jobtracker/internal/shared/ordering"
	"jobtracker/internal/shared/storage/query"
)

// SortFields are the fields a job listing can be ordered by.
var SortFields = []query.SortField{query.SortDate, query.SortCreatedAt, query.SortUpdatedAt}

// Compare orders two jobs newest first on field. Jobs missing the field sort last.
func Compare(a, b Job, field query.SortField) int {
	switch field {
	case query.SortDate:
		ad, aok := dateOf(a)
		bd, bok := dateOf(b)
		return ordering.NewestFirst(ad, bd, aok, bok)
	case query.SortUpdatedAt:
		return ordering.NewestFirst(a.UpdatedAt, b.UpdatedAt, ordering.Present(a.UpdatedAt), ordering.Present(b.UpdatedAt))
	default:
		return ordering.NewestFirst(a.CreatedAt, b.CreatedAt, ordering.Present(a.CreatedAt), ordering.Present(b.CreatedAt))
	}
}

func dateOf(j Job) (time.Time, bool) {
	if j.Date == nil || j.Date.IsZero() {
		return time.Time{}, false
	}
	return j.Date.Time, true
}
