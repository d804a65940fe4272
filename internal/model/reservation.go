package model

import "time"

// Reservation books one time slot of one theme on a calendar date.
// StartAt is copied from the time slot when the reservation is created so
// later catalog changes never rewrite historical bookings.
//
// Fields:
//  ID        – primary key identifier, assigned by the ledger.
//  Date      – calendar date formatted as YYYY-MM-DD.
//  TimeID    – reserved time slot.
//  StartAt   – snapshot of the slot's start time (HH:MM).
//  ThemeID   – reserved theme.
//  CreatedAt – creation timestamp.
type Reservation struct {
	ID        uint64    `json:"id"`         // reservations.id
	Date      string    `json:"date"`       // reservations.date
	TimeID    uint64    `json:"time_id"`    // reservations.time_id
	StartAt   string    `json:"start_at"`   // reservations.start_at
	ThemeID   uint64    `json:"theme_id"`   // reservations.theme_id
	CreatedAt time.Time `json:"created_at"` // reservations.created_at
}

// AvailableTime is one row of the availability grid returned for a date and
// theme.  Every catalog slot produces exactly one row.
type AvailableTime struct {
	TimeID        uint64 `json:"time_id"`
	StartAt       string `json:"start_at"`
	AlreadyBooked bool   `json:"already_booked"`
}
