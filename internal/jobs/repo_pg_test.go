package jobs

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"jobtracker/internal/shared/apperr"
	"jobtracker/internal/shared/storage/db"
	"jobtracker/internal/shared/storage/query"
	"jobtracker/internal/shared/telemetry"
)

const testJobID = "0b8a3c8e-5a4e-4c1f-9b7a-2f9d6c1e4a10"

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	repo := &PGRepo{
		Cache: db.CacheOf(conn, db.DefaultServerOptions()),
		Log:   telemetry.New("test", telemetry.NewLocalSink(io.Discard)),
	}
	return repo, mock
}

func jobRows() *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(jobColumns, ", "))
}

func jobRow(rows *sqlmock.Rows, id, title string, date any) *sqlmock.Rows {
	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, title, "Acme", "Lyon", "desc", "https://jobs.example/1", date, "CDI", "senior",
		[]byte(`{"currency":"EUR","min":50000}`),
		[]byte(`["scrum"]`),
		[]byte(`["go","postgres"]`),
		true, "linkedin", "fr", "like", nil, "initialized", created, created,
	)
}

func TestPGRepoGetByIDDecodesRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	posted := time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs WHERE id = $1")).
		WithArgs(testJobID).
		WillReturnRows(jobRow(jobRows(), testJobID, "Go dev", posted))

	job, err := repo.GetByID(context.Background(), testJobID)
	if err != nil || job == nil {
		t.Fatalf("GetByID = %v, %v", job, err)
	}
	if job.Date == nil || !job.Date.Equal(posted) {
		t.Fatalf("unexpected date: %v", job.Date)
	}
	if job.Salary == nil || job.Salary.Currency != "EUR" || job.Salary.Min == nil || *job.Salary.Min != 50000 {
		t.Fatalf("unexpected salary: %+v", job.Salary)
	}
	if len(job.Technologies) != 2 || job.CompanyDetails != nil || job.ProcessingStage != StageInitialized {
		t.Fatalf("unexpected job: %+v", job)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDAbsentReturnsNil(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs WHERE id = $1")).
		WithArgs(testJobID).
		WillReturnRows(jobRows())

	job, err := repo.GetByID(context.Background(), testJobID)
	if err != nil || job != nil {
		t.Fatalf("GetByID = %v, %v; want nil, nil", job, err)
	}
}

func TestPGRepoGetAllBuildsFilterSortAndPaging(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM jobs WHERE company = $1 AND teleworking = $2 ORDER BY updated_at DESC NULLS LAST, id LIMIT $3 OFFSET $4",
	)).
		WithArgs("Acme", true, 10, 5).
		WillReturnRows(jobRow(jobRows(), testJobID, "Go dev", nil))

	jobs, err := repo.GetAll(context.Background(), query.Options{
		Filter: query.Filter{"teleworking": "true", "company": "Acme"},
		Limit:  10,
		Skip:   5,
		Sort:   query.SortUpdatedAt,
	})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Date != nil {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetAllEmptyIsEmptySlice(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs ORDER BY date DESC NULLS LAST, id")).
		WillReturnRows(jobRows())

	jobs, err := repo.GetAll(context.Background(), query.Options{})
	if err != nil || jobs == nil || len(jobs) != 0 {
		t.Fatalf("GetAll = %v, %v; want empty slice", jobs, err)
	}
}

func TestPGRepoCreateReturnsStoredRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	args := make([]driver.Value, 18)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs(args...).
		WillReturnRows(jobRow(jobRows(), testJobID, "Go dev", nil))

	created, err := repo.Create(context.Background(), Job{Title: "Go dev", Company: "Acme", ProcessingStage: StageInitialized})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != testJobID || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created job: %+v", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateSetsOnlyPatchedColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE jobs SET title = $1, teleworking = $2, updated_at = now() WHERE id = $3 RETURNING",
	)).
		WithArgs("Platform engineer", false, testJobID).
		WillReturnRows(jobRow(jobRows(), testJobID, "Platform engineer", nil))

	title := "Platform engineer"
	remote := false
	job, err := repo.Update(context.Background(), testJobID, Patch{Title: &title, Teleworking: &remote})
	if err != nil || job == nil || job.Title != title {
		t.Fatalf("Update = %+v, %v", job, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteReportsAbsence(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jobs WHERE id = $1")).
		WithArgs(testJobID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), testJobID)
	if err != nil || deleted {
		t.Fatalf("Delete = %v, %v; want false, nil", deleted, err)
	}
}

func TestPGRepoClassifiesFailures(t *testing.T) {
	cases := []struct {
		name  string
		cause error
		want  error
	}{
		{"check violation", &pgconn.PgError{Code: "23514", Message: "violates check constraint"}, apperr.ErrValidation},
		{"connection refused", errors.New("dial tcp: connection refused"), apperr.ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec("DELETE FROM jobs").WillReturnError(tc.cause)

			_, err := repo.Delete(context.Background(), testJobID)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var appErr *apperr.Error
			if !errors.As(err, &appErr) || appErr.Name() != "DeleteJobError" || appErr.Layer != apperr.LayerRepository {
				t.Fatalf("unexpected error shape: %#v", err)
			}
			if appErr.Context["job_id"] != testJobID {
				t.Fatalf("expected job_id context, got %v", appErr.Context)
			}
		})
	}
}

func TestPGRepoWithoutDatabaseURLIsConfigurationError(t *testing.T) {
	repo := &PGRepo{
		Cache: db.NewCache("", db.DefaultServerOptions()),
		Log:   telemetry.New("test", telemetry.NewLocalSink(io.Discard)),
	}
	_, err := repo.GetByID(context.Background(), testJobID)
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
