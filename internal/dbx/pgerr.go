package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation. Repositories use it to translate constraint backstops into
// domain conflict errors.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
