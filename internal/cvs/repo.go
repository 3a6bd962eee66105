package cvs

import (
	"context"

	"jobtracker/internal/shared/storage/query"
)

// Filterable lists the CV fields a listing may filter on.
var Filterable = query.Schema{
	"title":           {Column: "title"},
	"first_name":      {Column: "first_name"},
	"last_name":       {Column: "last_name"},
	"email":           {Column: "email"},
	"city":            {Column: "city"},
	"driving_license": {Column: "driving_license", Kind: query.Bool},
}

// Repo owns storage access for CVs. Absence is a nil result, not an error.
type Repo interface {
	GetAll(ctx context.Context, opts query.Options) ([]CV, error)
	Count(ctx context.Context, filter query.Filter) (int, error)
	GetByID(ctx context.Context, id string) (*CV, error)
	Create(ctx context.Context, cv CV) (CV, error)
	Update(ctx context.Context, id string, patch Patch) (*CV, error)
	Delete(ctx context.Context, id string) (bool, error)
}

const (
	opGetCvs    = "GetCvs"
	opCountCvs  = "CountCvs"
	opGetCvByID = "GetCvByID"
	opCreateCv  = "CreateCv"
	opUpdateCv  = "UpdateCv"
	opDeleteCv  = "DeleteCv"
)
