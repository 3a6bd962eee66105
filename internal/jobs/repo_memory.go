package jobs

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
	data map[string]Job
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// GetAll returns the jobs matching opts.Filter, newest first on opts.Sort.
func (r *MemoryRepo) GetAll(ctx context.Context, opts query.Options) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.LayerRepository, opGetJobs, err)
	}
	conds, err := Filterable.Conditions(opts.Filter)
	if err != nil {
		return nil, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opGetJobs, err)
	}

	r.mu.RLock()
	out := make([]Job, 0, len(r.data))
	for _, j := range r.data {
		if matches(j, conds) {
			out = append(out, j.clone())
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

// Count returns the number of jobs matching filter.
func (r *MemoryRepo) Count(ctx context.Context, filter query.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.Wrap(apperr.LayerRepository, opCountJobs, err)
	}
	conds, err := Filterable.Conditions(filter)
	if err != nil {
		return 0, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opCountJobs, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, j := range r.data {
		if matches(j, conds) {
			n++
		}
	}
	return n, nil
}

// GetByID returns the job with id, or nil when there is none.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.LayerRepository, opGetJobByID, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	j = j.clone()
	return &j, nil
}

// Create stores job under a fresh id.
func (r *MemoryRepo) Create(ctx context.Context, job Job) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, apperr.Wrap(apperr.LayerRepository, opCreateJob, err)
	}
	now := r.now()
	job.ID = uuid.NewString()
	job.CreatedAt = now
	job.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[job.ID] = job.clone()
	return job, nil
}

// Update merges patch into the stored job and returns the result, or nil when there is none.
func (r *MemoryRepo) Update(ctx context.Context, id string, patch Patch) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.LayerRepository, opUpdateJob, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&j)
	j.UpdatedAt = r.now()
	r.data[id] = j.clone()
	return &j, nil
}

// Delete removes the job with id and reports whether it existed.
func (r *MemoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperr.Wrap(apperr.LayerRepository, opDeleteJob, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return false, nil
	}
	delete(r.data, id)
	return true, nil
}

func matches(j Job, conds []query.Condition) bool {
	for _, c := range conds {
		if fieldValue(j, c.Key) != c.Value {
			return false
		}
	}
	return true
}

func fieldValue(j Job, key string) any {
	switch key {
	case "title":
		return j.Title
	case "company":
		return j.Company
	case "location":
		return j.Location
	case "contract_type":
		return j.ContractType
	case "level":
		return j.Level
	case "source":
		return j.Source
	case "language":
		return j.Language
	case "preference":
		return string(j.Preference)
	case "processing_stage":
		return string(j.ProcessingStage)
	case "teleworking":
		return j.Teleworking
	default:
		return nil
	}
}

// clone copies every slice and pointer so stored jobs never alias what callers hold.
func (j Job) clone() Job {
	j.Date = clonePtr(j.Date)
	if j.Salary != nil {
		sal := *j.Salary
		sal.Min = clonePtr(sal.Min)
		sal.Max = clonePtr(sal.Max)
		j.Salary = &sal
	}
	j.Methodologies = slices.Clone(j.Methodologies)
	j.Technologies = slices.Clone(j.Technologies)
	if j.CompanyDetails != nil {
		d := *j.CompanyDetails
		d.Locations = slices.Clone(d.Locations)
		d.Leadership = slices.Clone(d.Leadership)
		for i := range d.Leadership {
			d.Leadership[i].Role = clonePtr(d.Leadership[i].Role)
		}
		d.Revenue = slices.Clone(d.Revenue)
		for i := range d.Revenue {
			d.Revenue[i].Year = clonePtr(d.Revenue[i].Year)
			d.Revenue[i].Amount = clonePtr(d.Revenue[i].Amount)
			d.Revenue[i].Currency = clonePtr(d.Revenue[i].Currency)
		}
		d.MarketPositioning = clonePtr(d.MarketPositioning)
		d.NAFAPECode = clonePtr(d.NAFAPECode)
		d.Siren = clonePtr(d.Siren)
		d.Website = clonePtr(d.Website)
		d.Employees = clonePtr(d.Employees)
		j.CompanyDetails = &d
	}
	return j
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
