package repo

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun/driver/pgdriver"

	"ietool.dev/backend-next/internal/pkg/apperr"
)

const sqlStateUniqueViolation = "23505"

// translate maps storage errors onto application errors. what names the
// entity for the error message.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound.Msg("%s not found", what)
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == sqlStateUniqueViolation {
		return apperr.ErrConflict.Msg("%s already exists", what)
	}
	return apperr.Wrap(err, "repo: "+what)
}

// mustAffect turns a write that touched no row into ErrNotFound.
func mustAffect(res sql.Result, err error, what string) error {
	if err != nil {
		return translate(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, what)
	}
	if n == 0 {
		return apperr.ErrNotFound.Msg("%s not found", what)
	}
	return nil
}
