package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrBadCreds     = errors.New("invalid email or password")
	ErrUnauthorized = errors.New("authentication required")
)

// ValidationError covers missing or malformed input.
type ValidationError struct {
	Msg    string
	Fields []string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means the referenced record is absent or not owned by the caller.
type NotFoundError struct{ What string }

func (e *NotFoundError) Error() string { return e.What + " not found" }

type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Required  decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s", e.Balance.StringFixed(2), e.Required.StringFixed(2))
}

type InsufficientStockError struct {
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

// InconsistentPackageError is raised when a package component references a
// product that no longer exists; the package needs manual correction.
type InconsistentPackageError struct {
	PackageID string
	ProductID string
}

func (e *InconsistentPackageError) Error() string {
	return fmt.Sprintf("package %s references missing product %s", e.PackageID, e.ProductID)
}

// StorageError wraps a database failure. Its message never reaches clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// lookup maps sql.ErrNoRows onto NotFoundError and everything else onto StorageError.
func lookup(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{What: what}
	}
	return storage("load "+what, err)
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
