// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// service package to distinguish between different failure scenarios
// without inspecting driver errors. For example, ErrDuplicateSlot reports
// that the storage-level uniqueness constraint on a reservation slot
// rejected an insert, while ErrInUse signals that a catalog entry cannot be
// removed because reservations still reference it.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrTimeSlotNotFound is returned when a time slot lookup fails.
	ErrTimeSlotNotFound = errors.New("time slot not found")
	// ErrThemeNotFound is returned when a theme lookup fails.
	ErrThemeNotFound = errors.New("theme not found")
	// ErrReservationNotFound is returned when a reservation lookup fails.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrDuplicateSlot is returned when a reservation for the same
	// (date, time, theme) already exists.
	ErrDuplicateSlot = errors.New("reservation slot already taken")
	// ErrDuplicate is returned when a catalog entry collides with an
	// existing unique value (time slot start, theme name).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInUse is returned when deleting a catalog entry that reservations
	// still reference.
	ErrInUse = errors.New("entry in use")
)

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
	mysqlNoReferencedRow  = 1452
	mysqlNoReferencedRow2 = 1216
)

func isMySQLError(err error, numbers ...uint16) bool {
	_, ok := mysqlError(err, numbers...)
	return ok
}

func mysqlError(err error, numbers ...uint16) (*mysql.MySQLError, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil, false
	}
	for _, n := range numbers {
		if me.Number == n {
			return me, true
		}
	}
	return nil, false
}
