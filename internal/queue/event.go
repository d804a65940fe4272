// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/roomescape-reservation/internal/model"
)

// Event types carried in ReservationEvent.Type.
const (
	EventReservationCreated = "reservation.created"
	EventReservationDeleted = "reservation.deleted"
)

// ReservationEvent is published when a reservation is created or deleted.
// It carries enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type ReservationEvent struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	Date          string `json:"date"`
	TimeID        uint64 `json:"time_id"`
	StartAt       string `json:"start_at"`
	ThemeID       uint64 `json:"theme_id"`
	ThemeName     string `json:"theme_name,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent builds an event of the given type for r with a fresh
// event ID.
func NewReservationEvent(typ string, r model.Reservation, themeName string, at time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          typ,
		ReservationID: r.ID,
		Date:          r.Date,
		TimeID:        r.TimeID,
		StartAt:       r.StartAt,
		ThemeID:       r.ThemeID,
		ThemeName:     themeName,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
