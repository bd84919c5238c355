package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/shampooches/payments/internal/models"
)

const pqUniqueViolation = "23505"

// mapWriteError turns a unique violation into models.ErrDuplicateTransaction.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return models.ErrDuplicateTransaction
	}
	return err
}
