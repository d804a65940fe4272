package model

// TimeSlot is a reservable wall-clock start time offered by the catalog.
// Slots are shared by every theme; a reservation books one slot of one
// theme on one date.
//
// Fields:
//  ID      – primary key identifier.
//  StartAt – time of day formatted as HH:MM.
type TimeSlot struct {
	ID      uint64 `json:"id"`       // reservation_times.id
	StartAt string `json:"start_at"` // reservation_times.start_at
}
