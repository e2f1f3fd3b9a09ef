package postgres

import (
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/insumos-api/internal/domain"
)

// Códigos SQLSTATE que indican contención y admiten reintento.
const (
	codeLockNotAvailable     = "55P03" // lock_timeout o NOWAIT
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// psql builder con placeholders $n.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapError traduce un error de pgx a la taxonomía de dominio:
// contención de bloqueos → *domain.ConflictError, el resto → *domain.StorageError.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsDomainError(err) {
		return err
	}
	switch pgCode(err) {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
		return &domain.ConflictError{Resource: op, Err: err}
	}
	return &domain.StorageError{Op: op, Err: fmt.Errorf("%s: %w", op, err)}
}
