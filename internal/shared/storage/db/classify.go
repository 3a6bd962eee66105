package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"jobtracker/internal/shared/apperr"
)

// Classify picks the failure kind for a storage error. Errors already classified keep their
// kind; Postgres data exceptions (class 22) and integrity violations (class 23) are
// validation failures; everything else is transport.
func Classify(err error) apperr.Kind {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return apperr.KindValidation
		}
	}
	return apperr.KindTransport
}
