package cvs

import (
	"context"
	"strings"

	"jobtracker/internal/shared/apperr"
	"jobtracker/internal/shared/storage/query"
)

// Service contains business logic for CVs.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// List returns the CVs selected by opts, newest first.
func (s *Service) List(ctx context.Context, opts query.Options) ([]CV, error) {
	if opts.Sort == "" {
		opts.Sort = query.SortCreatedAt
	}
	cvs, err := s.Repo.GetAll(ctx, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.LayerService, opGetCvs, err)
	}
	return cvs, nil
}

// Count returns the number of CVs matching filter.
func (s *Service) Count(ctx context.Context, filter query.Filter) (int, error) {
	n, err := s.Repo.Count(ctx, filter)
	if err != nil {
		return 0, apperr.Wrap(apperr.LayerService, opCountCvs, err)
	}
	return n, nil
}

// GetByID returns the CV with id or a not-found error.
func (s *Service) GetByID(ctx context.Context, id string) (CV, error) {
	cv, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return CV{}, apperr.Wrap(apperr.LayerService, opGetCvByID, err)
	}
	if cv == nil {
		return CV{}, notFound(opGetCvByID, id)
	}
	return *cv, nil
}

// Create stores a new CV with its skills de-duplicated.
func (s *Service) Create(ctx context.Context, cv CV) (CV, error) {
	cv.Title = strings.TrimSpace(cv.Title)
	if cv.Title == "" {
		return CV{}, apperr.Validation(apperr.LayerService, opCreateCv, "title is required")
	}
	cv.Skills = DedupeSkills(cv.Skills)

	created, err := s.Repo.Create(ctx, cv)
	if err != nil {
		return CV{}, apperr.Wrap(apperr.LayerService, opCreateCv, err)
	}
	return created, nil
}

// Update merges patch into the CV with id.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (CV, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return CV{}, apperr.Validation(apperr.LayerService, opUpdateCv, "title cannot be empty")
	}
	if patch.Skills != nil {
		skills := DedupeSkills(*patch.Skills)
		if skills == nil {
			skills = []string{}
		}
		patch.Skills = &skills
	}

	cv, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return CV{}, apperr.Wrap(apperr.LayerService, opUpdateCv, err)
	}
	if cv == nil {
		return CV{}, notFound(opUpdateCv, id)
	}
	return *cv, nil
}

// Delete removes the CV with id or returns a not-found error.
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.LayerService, opDeleteCv, err)
	}
	if !deleted {
		return notFound(opDeleteCv, id)
	}
	return nil
}

func notFound(op, id string) *apperr.Error {
	return apperr.NotFound(apperr.LayerService, op, "cv not found").With("cv_id", id)
}
