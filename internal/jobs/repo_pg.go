package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobtracker/internal/shared/apperr"
	"jobtracker/internal/shared/metrics"
	"jobtracker/internal/shared/storage/db"
	"jobtracker/internal/shared/storage/query"
	"jobtracker/internal/shared/telemetry"
)

const jobColumns = `id, title, company, location, description, url, date, contract_type, level, salary, methodologies, technologies, teleworking, source, language, preference, company_details, processing_stage, created_at, updated_at`

var sortColumns = map[query.SortField]string{
	query.SortDate:      "date",
	query.SortCreatedAt: "created_at",
	query.SortUpdatedAt: "updated_at",
}

// PGRepo implements Repo using Postgres. The connection is acquired from the cache on every
// call so the first request pays the connect cost and every later one reuses the handle.
type PGRepo struct {
	Cache *db.Cache
	Log   *telemetry.Logger
}

// GetAll lists jobs matching opts.
func (r *PGRepo) GetAll(ctx context.Context, opts query.Options) (jobs []Job, err error) {
	started := time.Now()
	defer func() { err = r.finish(opGetJobs, started, err, nil) }()

	conds, err := Filterable.Conditions(opts.Filter)
	if err != nil {
		return nil, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opGetJobs, err)
	}
	where, args := query.Where(conds)

	column, ok := sortColumns[opts.Sort]
	if !ok {
		column = sortColumns[query.SortDate]
	}
	stmt := "SELECT " + jobColumns + " FROM jobs" + where +
		" ORDER BY " + column + " DESC NULLS LAST, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		stmt += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		stmt += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	rows, err := conn.QueryContext(opCtx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of jobs matching filter.
func (r *PGRepo) Count(ctx context.Context, filter query.Filter) (n int, err error) {
	started := time.Now()
	defer func() { err = r.finish(opCountJobs, started, err, nil) }()

	conds, err := Filterable.Conditions(filter)
	if err != nil {
		return 0, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opCountJobs, err)
	}
	where, args := query.Where(conds)

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	if err := conn.QueryRowContext(opCtx, "SELECT COUNT(*) FROM jobs"+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetByID fetches a job, returning nil when it does not exist.
func (r *PGRepo) GetByID(ctx context.Context, id string) (job *Job, err error) {
	started := time.Now()
	defer func() { err = r.finish(opGetJobByID, started, err, map[string]any{"job_id": id}) }()

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	const stmt = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	j, err := scanJob(conn.QueryRowContext(opCtx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

// Create inserts job under a fresh id and returns the stored row.
func (r *PGRepo) Create(ctx context.Context, job Job) (created Job, err error) {
	started := time.Now()
	defer func() { err = r.finish(opCreateJob, started, err, map[string]any{"company": job.Company}) }()

	salary, err := jsonValue(job.Salary)
	if err != nil {
		return Job{}, err
	}
	methodologies, err := jsonValue(nonNil(job.Methodologies))
	if err != nil {
		return Job{}, err
	}
	technologies, err := jsonValue(nonNil(job.Technologies))
	if err != nil {
		return Job{}, err
	}
	details, err := jsonValue(job.CompanyDetails)
	if err != nil {
		return Job{}, err
	}

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return Job{}, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	const stmt = `
INSERT INTO jobs (
    id, title, company, location, description, url, date, contract_type, level, salary,
    methodologies, technologies, teleworking, source, language, preference, company_details,
    processing_stage, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now())
RETURNING ` + jobColumns

	row := conn.QueryRowContext(opCtx, stmt,
		uuid.NewString(),
		job.Title,
		job.Company,
		job.Location,
		job.Description,
		job.URL,
		dateValue(job.Date),
		job.ContractType,
		job.Level,
		salary,
		methodologies,
		technologies,
		job.Teleworking,
		job.Source,
		job.Language,
		string(job.Preference),
		details,
		string(job.ProcessingStage),
	)
	return scanJob(row)
}

// Update applies patch and returns the updated row, or nil when the job does not exist.
func (r *PGRepo) Update(ctx context.Context, id string, patch Patch) (job *Job, err error) {
	started := time.Now()
	defer func() { err = r.finish(opUpdateJob, started, err, map[string]any{"job_id": id}) }()

	sets, args, err := patchAssignments(patch)
	if err != nil {
		return nil, err
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	stmt := "UPDATE jobs SET " + strings.Join(sets, ", ") +
		fmt.Sprintf(" WHERE id = $%d RETURNING ", len(args)) + jobColumns

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	j, err := scanJob(conn.QueryRowContext(opCtx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

// Delete removes a job and reports whether a row was deleted.
func (r *PGRepo) Delete(ctx context.Context, id string) (deleted bool, err error) {
	started := time.Now()
	defer func() { err = r.finish(opDeleteJob, started, err, map[string]any{"job_id": id}) }()

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return false, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	res, err := conn.ExecContext(opCtx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// finish records the outcome of op and turns a raw failure into a repository error.
func (r *PGRepo) finish(op string, started time.Time, err error, fields map[string]any) error {
	if err == nil {
		metrics.ObserveRepository("job", op, "ok", started)
		return nil
	}
	e := apperr.WrapKind(db.Classify(err), apperr.LayerRepository, op, err)
	for k, v := range fields {
		e.With(k, v)
	}
	metrics.ObserveRepository("job", op, e.Kind.String(), started)
	r.logger().Error("repository.error", e.Fields())
	return e
}

func (r *PGRepo) logger() *telemetry.Logger {
	if r.Log != nil {
		return r.Log
	}
	return telemetry.Default()
}

// patchAssignments renders the set fields of p as SET terms with positional args from $1.
func patchAssignments(p Patch) ([]string, []any, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addJSON := func(column string, value any) error {
		raw, err := jsonValue(value)
		if err != nil {
			return err
		}
		add(column, raw)
		return nil
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Company != nil {
		add("company", *p.Company)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.URL != nil {
		add("url", *p.URL)
	}
	if p.Date != nil {
		add("date", dateValue(p.Date))
	}
	if p.ContractType != nil {
		add("contract_type", *p.ContractType)
	}
	if p.Level != nil {
		add("level", *p.Level)
	}
	if p.Salary != nil {
		if err := addJSON("salary", p.Salary); err != nil {
			return nil, nil, err
		}
	}
	if p.Methodologies != nil {
		if err := addJSON("methodologies", nonNil(*p.Methodologies)); err != nil {
			return nil, nil, err
		}
	}
	if p.Technologies != nil {
		if err := addJSON("technologies", nonNil(*p.Technologies)); err != nil {
			return nil, nil, err
		}
	}
	if p.Teleworking != nil {
		add("teleworking", *p.Teleworking)
	}
	if p.Source != nil {
		add("source", *p.Source)
	}
	if p.Language != nil {
		add("language", *p.Language)
	}
	if p.Preference != nil {
		add("preference", string(*p.Preference))
	}
	if p.CompanyDetails != nil {
		if err := addJSON("company_details", p.CompanyDetails); err != nil {
			return nil, nil, err
		}
	}
	if p.ProcessingStage != nil {
		add("processing_stage", string(*p.ProcessingStage))
	}
	return sets, args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var date sql.NullTime
	var salary, methodologies, technologies, details []byte
	var preference, stage string
	err := row.Scan(
		&j.ID,
		&j.Title,
		&j.Company,
		&j.Location,
		&j.Description,
		&j.URL,
		&date,
		&j.ContractType,
		&j.Level,
		&salary,
		&methodologies,
		&technologies,
		&j.Teleworking,
		&j.Source,
		&j.Language,
		&preference,
		&details,
		&stage,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return Job{}, err
	}
	if date.Valid {
		j.Date = &Date{Time: date.Time.UTC()}
	}
	j.Preference = Preference(preference)
	j.ProcessingStage = Stage(stage)
	if err := decodeJSON(salary, &j.Salary); err != nil {
		return Job{}, fmt.Errorf("decode salary: %w", err)
	}
	if err := decodeJSON(methodologies, &j.Methodologies); err != nil {
		return Job{}, fmt.Errorf("decode methodologies: %w", err)
	}
	if err := decodeJSON(technologies, &j.Technologies); err != nil {
		return Job{}, fmt.Errorf("decode technologies: %w", err)
	}
	if err := decodeJSON(details, &j.CompanyDetails); err != nil {
		return Job{}, fmt.Errorf("decode company_details: %w", err)
	}
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return j, nil
}

// jsonValue encodes v for a JSONB column; a nil value becomes SQL NULL.
func jsonValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func dateValue(d *Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
