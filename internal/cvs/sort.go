package cvs

import (
	"jobtracker/internal/shared/ordering"
	"jobtracker/internal/shared/storage/query"
)

// SortFields are the fields a CV listing can be ordered by.
var SortFields = []query.SortField{query.SortCreatedAt, query.SortUpdatedAt}

// Compare orders two CVs newest first on field; createdAt unless updatedAt is asked for.
func Compare(a, b CV, field query.SortField) int {
	if field == query.SortUpdatedAt {
		return ordering.NewestFirst(a.UpdatedAt, b.UpdatedAt, ordering.Present(a.UpdatedAt), ordering.Present(b.UpdatedAt))
	}
	return ordering.NewestFirst(a.CreatedAt, b.CreatedAt, ordering.Present(a.CreatedAt), ordering.Present(b.CreatedAt))
}
