package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// Коды SQLSTATE, которые разбираем отдельно.
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqLockNotAvailable     = "55P03"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqQueryCanceled        = "57014"
)

// classify переводит ошибку драйвера в AppError. onUnique используется для нарушения
// уникальности; если он nil, нарушение считается обычным конфликтом.
func classify(err error, message string, onUnique error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, sql.ErrConnDone) {
		return apperror.Wrap(err, apperror.ErrCodeInfrastructure, message)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			if onUnique != nil {
				return onUnique
			}
			return apperror.Wrap(err, apperror.ErrCodeConflict, message)
		case pqForeignKeyViolation:
			return apperror.Wrap(err, apperror.ErrCodeConflict, message)
		case pqLockNotAvailable, pqSerializationFailure, pqDeadlockDetected, pqQueryCanceled:
			return apperror.Wrap(err, apperror.ErrCodeInfrastructure, message)
		}
		if pqErr.Code.Class() == "08" {
			return apperror.Wrap(err, apperror.ErrCodeInfrastructure, message)
		}
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

// notFoundOr возвращает notFound для sql.ErrNoRows, остальное классифицирует.
func notFoundOr(err error, notFound error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return classify(err, message, nil)
}
