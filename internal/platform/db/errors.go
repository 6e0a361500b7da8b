package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medpass/medpass/internal/platform/apperr"
)

// Postgres SQLSTATE codes translated by MapError.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError converts pgx errors into the shared error taxonomy. Context errors
// pass through untouched.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", entity, err)
	}

	if IsNotFound(err) {
		return apperr.NotFound(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict(fmt.Sprintf("%s already exists", entity))
		case codeForeignKeyViolation:
			return apperr.NotFound(entity)
		case codeCheckViolation:
			return apperr.Validation(pgErr.ColumnName, pgErr.Message)
		}
	}

	return fmt.Errorf("%s: %w", entity, err)
}
