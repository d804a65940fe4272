package service

import "errors"

// Failure kinds.  Every *Error unwraps to exactly one of these so callers
// can branch with errors.Is without knowing the concrete failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

// Error is a request failure that is the caller's to fix.  Code is a
// stable machine-readable identifier; Message is human readable.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

var (
	ErrTimeSlotNotFound    = &Error{Kind: ErrNotFound, Code: "time_slot_not_found", Message: "time slot not found"}
	ErrThemeNotFound       = &Error{Kind: ErrNotFound, Code: "theme_not_found", Message: "theme not found"}
	ErrReservationNotFound = &Error{Kind: ErrNotFound, Code: "reservation_not_found", Message: "reservation not found"}

	ErrPastDateTime = &Error{Kind: ErrInvalidArgument, Code: "past_date_time", Message: "cannot reserve a date and time in the past"}

	ErrDuplicateSlot     = &Error{Kind: ErrConflict, Code: "duplicate_slot", Message: "a reservation already exists for this date, time and theme"}
	ErrDuplicateTimeSlot = &Error{Kind: ErrConflict, Code: "duplicate_time_slot", Message: "a time slot with this start time already exists"}
	ErrDuplicateTheme    = &Error{Kind: ErrConflict, Code: "duplicate_theme", Message: "a theme with this name already exists"}
	ErrTimeSlotInUse     = &Error{Kind: ErrConflict, Code: "time_slot_in_use", Message: "time slot is referenced by reservations"}
	ErrThemeInUse        = &Error{Kind: ErrConflict, Code: "theme_in_use", Message: "theme is referenced by reservations"}
)

func invalidArgument(msg string) *Error {
	return &Error{Kind: ErrInvalidArgument, Code: "invalid_argument", Message: msg}
}
