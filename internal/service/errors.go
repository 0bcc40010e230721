package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrMenuInactive      = errors.New("menu is not available")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientPaid  = errors.New("amount paid is less than total")
	ErrOrderClosed       = errors.New("order is closed")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrCategoryInUse     = errors.New("category still has menus")
	ErrEmailTaken        = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
)

// validationError reports bad input as opposed to infrastructure failures.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
