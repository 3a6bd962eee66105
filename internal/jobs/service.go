package jobs

import (
	"context"
	"strings"

	"jobtracker/internal/shared/apperr"
	"jobtracker/internal/shared/storage/query"
)

const (
	opAdvanceJobStage = "AdvanceJobStage"
	opEnrichJob       = "EnrichJob"

	// WorkflowCompanyDetails is the enrichment workflow fired for a single job.
	WorkflowCompanyDetails = "CompanyDetails"
)

// WorkflowTrigger starts an external workflow without waiting for it to finish.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, workflow string, payload any) error
}

// Service contains business logic for jobs.
type Service struct {
	Repo      Repo
	Workflows WorkflowTrigger
}

// NewService constructs a Service. workflows may be nil when enrichment is not wired.
func NewService(repo Repo, workflows WorkflowTrigger) *Service {
	return &Service{Repo: repo, Workflows: workflows}
}

// List returns the jobs selected by opts, newest posting first unless another sort is asked.
func (s *Service) List(ctx context.Context, opts query.Options) ([]Job, error) {
	if opts.Sort == "" {
		opts.Sort = query.SortDate
	}
	jobs, err := s.Repo.GetAll(ctx, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.LayerService, opGetJobs, err)
	}
	return jobs, nil
}

// Count returns the number of jobs matching filter.
func (s *Service) Count(ctx context.Context, filter query.Filter) (int, error) {
	n, err := s.Repo.Count(ctx, filter)
	if err != nil {
		return 0, apperr.Wrap(apperr.LayerService, opCountJobs, err)
	}
	return n, nil
}

// GetByID returns the job with id or a not-found error.
func (s *Service) GetByID(ctx context.Context, id string) (Job, error) {
	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Job{}, apperr.Wrap(apperr.LayerService, opGetJobByID, err)
	}
	if job == nil {
		return Job{}, notFound(opGetJobByID, id)
	}
	return *job, nil
}

// Create validates and stores a new job. New jobs always start at the initialized stage.
func (s *Service) Create(ctx context.Context, job Job) (Job, error) {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	if job.Title == "" || job.Company == "" {
		return Job{}, apperr.Validation(apperr.LayerService, opCreateJob, "title and company are required")
	}
	if !job.Preference.Valid() {
		return Job{}, apperr.Validation(apperr.LayerService, opCreateJob, "unknown preference").
			With("preference", string(job.Preference))
	}
	switch job.ProcessingStage {
	case "":
		job.ProcessingStage = StageInitialized
	case StageInitialized:
	default:
		return Job{}, apperr.Validation(apperr.LayerService, opCreateJob, "new jobs must start at the initialized stage").
			With("processing_stage", string(job.ProcessingStage))
	}

	created, err := s.Repo.Create(ctx, job)
	if err != nil {
		return Job{}, apperr.Wrap(apperr.LayerService, opCreateJob, err)
	}
	return created, nil
}

// Update merges patch into the job with id. The processing stage may only move forward.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Job, error) {
	return s.update(ctx, opUpdateJob, id, patch)
}

// AdvanceStage moves the job with id to stage.
func (s *Service) AdvanceStage(ctx context.Context, id string, stage Stage) (Job, error) {
	return s.update(ctx, opAdvanceJobStage, id, Patch{ProcessingStage: &stage})
}

// Enrich fires workflow for the job with id. An empty workflow means the company-details
// workflow.
func (s *Service) Enrich(ctx context.Context, id, workflow string) error {
	if workflow == "" {
		workflow = WorkflowCompanyDetails
	}
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.LayerService, opEnrichJob, err)
	}
	if s.Workflows == nil {
		return apperr.Configuration(apperr.LayerService, opEnrichJob, "workflows are not configured")
	}
	payload := map[string]any{
		"job_id":  job.ID,
		"company": job.Company,
		"url":     job.URL,
	}
	if err := s.Workflows.Trigger(ctx, workflow, payload); err != nil {
		return apperr.Wrap(apperr.LayerService, opEnrichJob, err)
	}
	return nil
}

// Delete removes the job with id or returns a not-found error.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.LayerService, opDeleteJob, err)
	}
	if !deleted {
		return notFound(opDeleteJob, id)
	}
	return nil
}

func (s *Service) update(ctx context.Context, op, id string, patch Patch) (Job, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return Job{}, apperr.Validation(apperr.LayerService, op, "title cannot be empty")
	}
	if patch.Company != nil && strings.TrimSpace(*patch.Company) == "" {
		return Job{}, apperr.Validation(apperr.LayerService, op, "company cannot be empty")
	}
	if patch.Preference != nil && !patch.Preference.Valid() {
		return Job{}, apperr.Validation(apperr.LayerService, op, "unknown preference").
			With("preference", string(*patch.Preference))
	}
	if patch.ProcessingStage != nil {
		next := *patch.ProcessingStage
		if !next.Valid() {
			return Job{}, apperr.Validation(apperr.LayerService, op, "unknown processing stage").
				With("processing_stage", string(next))
		}
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return Job{}, apperr.Wrap(apperr.LayerService, op, err)
		}
		if !current.ProcessingStage.CanAdvanceTo(next) {
			return Job{}, apperr.Validation(apperr.LayerService, op, "processing stage cannot move backwards").
				With("from", string(current.ProcessingStage)).
				With("to", string(next))
		}
	}

	job, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return Job{}, apperr.Wrap(apperr.LayerService, op, err)
	}
	if job == nil {
		return Job{}, notFound(op, id)
	}
	return *job, nil
}

func notFound(op, id string) *apperr.Error {
	return apperr.NotFound(apperr.LayerService, op, "job not found").With("job_id", id)
}
