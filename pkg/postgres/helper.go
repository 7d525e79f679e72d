package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// IsUniqueViolation reports SQLSTATE 23505
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsCheckViolation reports SQLSTATE 23514, e.g. an unknown status value
func IsCheckViolation(err error) bool {
	return hasCode(err, codeCheckViolation)
}

// errors.As достаёт *pgconn.PgError из всей цепочки обёрток
func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == code
	}
	return false
}
