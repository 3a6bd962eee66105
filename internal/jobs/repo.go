package jobs

import (
	"context"

	"jobtracker/internal/shared/storage/query"
)

// Filterable lists the job fields a listing may filter on.
var Filterable = query.Schema{
	"title":            {Column: "title"},
	"company":          {Column: "company"},
	"location":         {Column: "location"},
	"contract_type":    {Column: "contract_type"},
	"level":            {Column: "level"},
	"source":           {Column: "source"},
	"language":         {Column: "language"},
	"preference":       {Column: "preference"},
	"processing_stage": {Column: "processing_stage"},
	"teleworking":      {Column: "teleworking", Kind: query.Bool},
}

// Repo owns storage access for jobs. Lookups by id report absence as a nil result, not an
// error; deciding whether absence is a failure belongs to the service.
type Repo interface {
	GetAll(ctx context.Context, opts query.Options) ([]Job, error)
	Count(ctx context.Context, filter query.Filter) (int, error)
	GetByID(ctx context.Context, id string) (*Job, error)
	Create(ctx context.Context, job Job) (Job, error)
	Update(ctx context.Context, id string, patch Patch) (*Job, error)
	Delete(ctx context.Context, id string) (bool, error)
}

const (
	opGetJobs    = "GetJobs"
	opCountJobs  = "CountJobs"
	opGetJobByID = "GetJobByID"
	opCreateJob  = "CreateJob"
	opUpdateJob  = "UpdateJob"
	opDeleteJob  = "DeleteJob"
)
