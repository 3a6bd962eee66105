package cvs

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

const cvColumns = `id, title, first_name, last_name, email, phone, city, links, driving_license, experiences, education, skills, interests, created_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	Cache *db.Cache
	Log   *telemetry.Logger
}

// GetAll lists CVs matching opts.
func (r *PGRepo) GetAll(ctx context.Context, opts query.Options) (cvs []CV, err error) {
	started := time.Now()
	defer func() { err = r.finish(opGetCvs, started, err, nil) }()

	conds, err := Filterable.Conditions(opts.Filter)
	if err != nil {
		return nil, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opGetCvs, err)
	}
	where, args := query.Where(conds)

	column := "created_at"
	if opts.Sort == query.SortUpdatedAt {
		column = "updated_at"
	}
	stmt := "SELECT " + cvColumns + " FROM cvs" + where + " ORDER BY " + column + " DESC NULLS LAST, id"
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

	out := make([]CV, 0)
	for rows.Next() {
		cv, err := scanCV(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of CVs matching filter.
func (r *PGRepo) Count(ctx context.Context, filter query.Filter) (n int, err error) {
	started := time.Now()
	defer func() { err = r.finish(opCountCvs, started, err, nil) }()

	conds, err := Filterable.Conditions(filter)
	if err != nil {
		return 0, apperr.WrapKind(apperr.KindValidation, apperr.LayerRepository, opCountCvs, err)
	}
	where, args := query.Where(conds)

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	if err := conn.QueryRowContext(opCtx, "SELECT COUNT(*) FROM cvs"+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetByID fetches a CV, returning nil when it does not exist.
func (r *PGRepo) GetByID(ctx context.Context, id string) (found *CV, err error) {
	started := time.Now()
	defer func() { err = r.finish(opGetCvByID, started, err, map[string]any{"cv_id": id}) }()

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	cv, err := scanCV(conn.QueryRowContext(opCtx, `SELECT `+cvColumns+` FROM cvs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// Create inserts cv under a fresh id and returns the stored row.
func (r *PGRepo) Create(ctx context.Context, cv CV) (created CV, err error) {
	started := time.Now()
	defer func() { err = r.finish(opCreateCv, started, err, nil) }()

	var enc jsonArgs
	links := enc.add(nonNil(cv.Links))
	experiences := enc.add(nonNil(cv.Experiences))
	education := enc.add(nonNil(cv.Education))
	skills := enc.add(nonNil(cv.Skills))
	interests := enc.add(nonNil(cv.Interests))
	if enc.err != nil {
		return CV{}, enc.err
	}

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return CV{}, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	const stmt = `
INSERT INTO cvs (
    id, title, first_name, last_name, email, phone, city, links, driving_license,
    experiences, education, skills, interests, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
RETURNING ` + cvColumns

	return scanCV(conn.QueryRowContext(opCtx, stmt,
		uuid.NewString(),
		cv.Title,
		cv.FirstName,
		cv.LastName,
		cv.Email,
		cv.Phone,
		cv.City,
		links,
		cv.DrivingLicense,
		experiences,
		education,
		skills,
		interests,
	))
}

// Update applies patch and returns the updated row, or nil when the CV does not exist.
func (r *PGRepo) Update(ctx context.Context, id string, patch Patch) (updated *CV, err error) {
	started := time.Now()
	defer func() { err = r.finish(opUpdateCv, started, err, map[string]any{"cv_id": id}) }()

	sets, args, err := patchAssignments(patch)
	if err != nil {
		return nil, err
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	stmt := fmt.Sprintf("UPDATE cvs SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), cvColumns)

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	cv, err := scanCV(conn.QueryRowContext(opCtx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// Delete removes a CV and reports whether a row was deleted.
func (r *PGRepo) Delete(ctx context.Context, id string) (deleted bool, err error) {
	started := time.Now()
	defer func() { err = r.finish(opDeleteCv, started, err, map[string]any{"cv_id": id}) }()

	conn, err := r.Cache.Acquire(ctx)
	if err != nil {
		return false, err
	}
	opCtx, cancel := r.Cache.OpContext(ctx)
	defer cancel()

	res, err := conn.ExecContext(opCtx, `DELETE FROM cvs WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepo) finish(op string, started time.Time, err error, fields map[string]any) error {
	if err == nil {
		metrics.ObserveRepository("cv", op, "ok", started)
		return nil
	}
	e := apperr.WrapKind(db.Classify(err), apperr.LayerRepository, op, err)
	for k, v := range fields {
		e.With(k, v)
	}
	metrics.ObserveRepository("cv", op, e.Kind.String(), started)
	log := r.Log
	if log == nil {
		log = telemetry.Default()
	}
	log.Error("repository.error", e.Fields())
	return e
}

func patchAssignments(p Patch) ([]string, []any, error) {
	var sets []string
	var args []any
	var enc jsonArgs
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	for _, f := range []struct {
		column string
		value  *string
	}{
		{"title", p.Title},
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"email", p.Email},
		{"phone", p.Phone},
		{"city", p.City},
	} {
		if f.value != nil {
			add(f.column, *f.value)
		}
	}
	if p.Links != nil {
		add("links", enc.add(nonNil(*p.Links)))
	}
	if p.DrivingLicense != nil {
		add("driving_license", *p.DrivingLicense)
	}
	if p.Experiences != nil {
		add("experiences", enc.add(nonNil(*p.Experiences)))
	}
	if p.Education != nil {
		add("education", enc.add(nonNil(*p.Education)))
	}
	if p.Skills != nil {
		add("skills", enc.add(nonNil(*p.Skills)))
	}
	if p.Interests != nil {
		add("interests", enc.add(nonNil(*p.Interests)))
	}
	if enc.err != nil {
		return nil, nil, enc.err
	}
	return sets, args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCV(row rowScanner) (CV, error) {
	var cv CV
	var links, experiences, education, skills, interests []byte
	err := row.Scan(
		&cv.ID,
		&cv.Title,
		&cv.FirstName,
		&cv.LastName,
		&cv.Email,
		&cv.Phone,
		&cv.City,
		&links,
		&cv.DrivingLicense,
		&experiences,
		&education,
		&skills,
		&interests,
		&cv.CreatedAt,
		&cv.UpdatedAt,
	)
	if err != nil {
		return CV{}, err
	}
	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"links", links, &cv.Links},
		{"experiences", experiences, &cv.Experiences},
		{"education", education, &cv.Education},
		{"skills", skills, &cv.Skills},
		{"interests", interests, &cv.Interests},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return CV{}, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	cv.CreatedAt = cv.CreatedAt.UTC()
	cv.UpdatedAt = cv.UpdatedAt.UTC()
	return cv, nil
}

// jsonArgs encodes JSONB arguments and keeps the first encoding error.
type jsonArgs struct {
	err error
}

func (j *jsonArgs) add(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil && j.err == nil {
		j.err = err
	}
	return raw
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
