package cvs

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobtracker/internal/shared/apperr"
	"jobtracker/internal/shared/storage/query"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]CV
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]CV),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// GetAll returns the CVs matching opts.Filter, newest first.
func (r *MemoryRepo) GetAll(ctx context.Context, opts query.Options) ([]CV, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.LayerRepository, opGetCvs, err)
	}
	conds, err := Filterable.Conditions(opts.Filter)
	if err != nil {
		return nil, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opGetCvs, err)
	}

	r.mu.RLock()
	out := make([]CV, 0, len(r.data))
	for _, cv := range r.data {
		if matches(cv, conds) {
			out = append(out, cv.clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		if c := Compare(out[a], out[b], opts.Sort); c != 0 {
			return c < 0
		}
		return out[a].ID < out[b].ID
	})
	start, end := opts.Window(len(out))
	return out[start:end], nil
}

// Count returns the number of CVs matching filter.
func (r *MemoryRepo) Count(ctx context.Context, filter query.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.Wrap(apperr.LayerRepository, opCountCvs, err)
	}
	conds, err := Filterable.Conditions(filter)
	if err != nil {
		return 0, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opCountCvs, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, cv := range r.data {
		if matches(cv, conds) {
			n++
		}
	}
	return n, nil
}

// GetByID returns the CV with id, or nil when there is none.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (*CV, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.LayerRepository, opGetCvByID, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	cv = cv.clone()
	return &cv, nil
}

// Create stores cv under a fresh id.
func (r *MemoryRepo) Create(ctx context.Context, cv CV) (CV, error) {
	if err := ctx.Err(); err != nil {
		return CV{}, apperr.Wrap(apperr.LayerRepository, opCreateCv, err)
	}
	now := r.now()
	cv.ID = uuid.NewString()
	cv.CreatedAt = now
	cv.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[cv.ID] = cv.clone()
	return cv, nil
}

// Update merges patch into the stored CV, or returns nil when there is none.
func (r *MemoryRepo) Update(ctx context.Context, id string, patch Patch) (*CV, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.LayerRepository, opUpdateCv, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cv, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&cv)
	cv.UpdatedAt = r.now()
	r.data[id] = cv.clone()
	return &cv, nil
}

// Delete removes the CV with id and reports whether it existed.
func (r *MemoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperr.Wrap(apperr.LayerRepository, opDeleteCv, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return false, nil
	}
	delete(r.data, id)
	return true, nil
}

func matches(cv CV, conds []query.Condition) bool {
	for _, c := range conds {
		var v any
		switch c.Key {
		case "title":
			v = cv.Title
		case "first_name":
			v = cv.FirstName
		case "last_name":
			v = cv.LastName
		case "email":
			v = cv.Email
		case "city":
			v = cv.City
		case "driving_license":
			v = cv.DrivingLicense
		}
		if v != c.Value {
			return false
		}
	}
	return true
}

// clone copies the nested lists so stored CVs never alias what callers hold.
func (cv CV) clone() CV {
	cv.Links = slices.Clone(cv.Links)
	cv.Experiences = slices.Clone(cv.Experiences)
	cv.Education = slices.Clone(cv.Education)
	cv.Skills = slices.Clone(cv.Skills)
	cv.Interests = slices.Clone(cv.Interests)
	return cv
}
