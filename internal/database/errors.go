package database

import (
	"database/sql"
	"errors"
	"fmt"

	"autoassist/internal/domain"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrConcurrentModification is returned when a conditional update matched no row.
	ErrConcurrentModification = fmt.Errorf("%w: record was modified concurrently", domain.ErrState)
	// ErrSlotFull is returned when a slot already holds its capacity of bookings.
	ErrSlotFull = fmt.Errorf("%w: the selected time slot is fully booked", domain.ErrValidation)
	// ErrNegativeStock is returned when an adjustment would take quantity below zero.
	ErrNegativeStock = fmt.Errorf("%w: insufficient stock", domain.ErrValidation)
	// ErrQuantityOverflow is returned when a restock would exceed the largest storable quantity.
	ErrQuantityOverflow = fmt.Errorf("%w: quantity too large", domain.ErrValidation)
)

// classify converts driver errors into the domain taxonomy. Errors that are
// already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsUserFacing(err) || errors.Is(err, domain.ErrStorage) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("%s: no such record", op)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return domain.Validation("%s: record already exists", op)
		case sqlite3.ErrConstraintForeignKey:
			return domain.Validation("%s: referenced record does not exist", op)
		case sqlite3.ErrConstraintCheck:
			return domain.Validation("%s: value out of range", op)
		}
	}
	return domain.Storage(op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
