package postgres

import (
	"database/sql"
	"errors"
	"strconv"

	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// itoa avoids importing strconv at every call site for placeholder building.
func itoa(n int) string {
	return strconv.Itoa(n)
}

// mapScanErr turns a sql.ErrNoRows from a Get/QueryRowx into a NotFound
// AppError naming the entity, leaving every other error untouched.
func mapScanErr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(entity)
	}
	return err
}

// requireRowsAffected turns a zero-row UPDATE/DELETE result into a NotFound
// AppError, the postgres equivalent of memstore's "not found in map" check.
func requireRowsAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound(entity)
	}
	return nil
}
