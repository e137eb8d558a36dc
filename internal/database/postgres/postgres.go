// Package postgres implements the link repository on top of PostgreSQL.
package postgres

import "github.com/jackc/pgx/v5/pgconn"

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	pgErr, ok := err.(*pgconn.PgError)
	return ok && pgErr.SQLState() == uniqueViolationErrCode
}
