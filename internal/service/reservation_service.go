// Package service holds the reservation rules: admission of new
// reservations, the per-date availability grid, and catalog management.
// Storage and transport are reached only through the interfaces in
// ports.go.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/roomescape-reservation/internal/model"
	"github.com/iliyamo/roomescape-reservation/internal/queue"
	"github.com/iliyamo/roomescape-reservation/internal/repository"
)

const publishTimeout = 2 * time.Second

// ReservationService admits, lists and deletes reservations and computes
// availability.  It keeps no state of its own.
type ReservationService struct {
	catalog Catalog
	ledger  Ledger
	events  Publisher
	log     zerolog.Logger
	now     func() time.Time
	loc     *time.Location
}

// Option customises a service at construction time.
type Option func(*options)

type options struct {
	events Publisher
	log    zerolog.Logger
	now    func() time.Time
	loc    *time.Location
}

// WithPublisher sets the event publisher.  The default drops events.
func WithPublisher(p Publisher) Option { return func(o *options) { o.events = p } }

// WithLogger sets the logger.  The default discards output.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithLocation sets the zone reservation dates and times are interpreted in.
// The default is UTC.
func WithLocation(loc *time.Location) Option { return func(o *options) { o.loc = loc } }

func buildOptions(opts []Option) options {
	o := options{
		events: NopPublisher{},
		log:    zerolog.Nop(),
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.events == nil {
		o.events = NopPublisher{}
	}
	if o.loc == nil {
		o.loc = time.UTC
	}
	return o
}

// NewReservationService wires a service to its collaborators.  catalog and
// ledger must be non-nil.
func NewReservationService(catalog Catalog, ledger Ledger, opts ...Option) *ReservationService {
	if catalog == nil || ledger == nil {
		panic("nil dependency passed to NewReservationService")
	}
	o := buildOptions(opts)
	return &ReservationService{
		catalog: catalog,
		ledger:  ledger,
		events:  o.events,
		log:     o.log,
		now:     o.now,
		loc:     o.loc,
	}
}

// CreateReservationInput is the admission request.
type CreateReservationInput struct {
	Date    string // YYYY-MM-DD
	TimeID  uint64
	ThemeID uint64
}

// Create admits a reservation.  Checks run in a fixed order: time slot
// exists, theme exists, date/time not in the past, slot free.  Only when
// all pass is the single ledger insert issued.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	if in.Date == "" || in.TimeID == 0 || in.ThemeID == 0 {
		return nil, invalidArgument("date, time_id and theme_id are required")
	}
	day, err := model.ParseDate(in.Date)
	if err != nil {
		return nil, invalidArgument("date must be formatted as YYYY-MM-DD")
	}
	date := day.Format(model.DateLayout)

	slot, err := s.catalog.FindTimeSlot(ctx, in.TimeID)
	if err != nil {
		if errors.Is(err, repository.ErrTimeSlotNotFound) {
			return nil, ErrTimeSlotNotFound
		}
		return nil, fmt.Errorf("find time slot %d: %w", in.TimeID, err)
	}
	theme, err := s.catalog.FindTheme(ctx, in.ThemeID)
	if err != nil {
		if errors.Is(err, repository.ErrThemeNotFound) {
			return nil, ErrThemeNotFound
		}
		return nil, fmt.Errorf("find theme %d: %w", in.ThemeID, err)
	}

	at, err := model.Combine(date, slot.StartAt, s.loc)
	if err != nil {
		return nil, fmt.Errorf("combine %s %s: %w", date, slot.StartAt, err)
	}
	// exactly now is still bookable
	if at.Before(s.now()) {
		return nil, ErrPastDateTime
	}

	taken, err := s.ledger.ExistsByDateTimeTheme(ctx, date, slot.ID, theme.ID)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, ErrDuplicateSlot
	}

	res := &model.Reservation{
		Date:      date,
		TimeID:    slot.ID,
		StartAt:   slot.StartAt,
		ThemeID:   theme.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.ledger.Insert(ctx, res); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateSlot):
			return nil, ErrDuplicateSlot
		case errors.Is(err, repository.ErrTimeSlotNotFound):
			return nil, ErrTimeSlotNotFound
		case errors.Is(err, repository.ErrThemeNotFound):
			return nil, ErrThemeNotFound
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	s.log.Info().
		Uint64("reservation_id", res.ID).
		Str("date", res.Date).
		Uint64("time_id", res.TimeID).
		Uint64("theme_id", res.ThemeID).
		Msg("reservation created")
	s.publish(ctx, queue.NewReservationEvent(queue.EventReservationCreated, *res, theme.Name, s.now()))
	return res, nil
}

// AvailableTimes returns one entry per catalog time slot, in catalog
// order, marking the slots already booked for themeID on date.  Slot
// identity is decided by ID, never by start time.
func (s *ReservationService) AvailableTimes(ctx context.Context, date string, themeID uint64) ([]model.AvailableTime, error) {
	if date == "" || themeID == 0 {
		return nil, invalidArgument("date and theme_id are required")
	}
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, invalidArgument("date must be formatted as YYYY-MM-DD")
	}
	date = day.Format(model.DateLayout)

	slots, err := s.catalog.ListTimeSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	booked, err := s.ledger.FindAllByDateAndTheme(ctx, date, themeID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	taken := make(map[uint64]struct{}, len(booked))
	for _, r := range booked {
		taken[r.TimeID] = struct{}{}
	}
	out := make([]model.AvailableTime, 0, len(slots))
	for _, ts := range slots {
		_, isBooked := taken[ts.ID]
		out = append(out, model.AvailableTime{TimeID: ts.ID, StartAt: ts.StartAt, AlreadyBooked: isBooked})
	}
	return out, nil
}

// List returns all reservations in ledger order.
func (s *ReservationService) List(ctx context.Context) ([]model.Reservation, error) {
	out, err := s.ledger.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// Get returns a single reservation or ErrReservationNotFound.
func (s *ReservationService) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("find reservation %d: %w", id, err)
	}
	return res, nil
}

// Delete removes a reservation.  Deleting an unknown ID succeeds.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
	// loaded first only so the deletion event can carry the slot
	res, err := s.ledger.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrReservationNotFound) {
		return fmt.Errorf("find reservation %d: %w", id, err)
	}
	deleted, err := s.ledger.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	if !deleted || res == nil {
		return nil
	}
	s.log.Info().Uint64("reservation_id", id).Msg("reservation deleted")
	s.publish(ctx, queue.NewReservationEvent(queue.EventReservationDeleted, *res, "", s.now()))
	return nil
}

func (s *ReservationService) publish(ctx context.Context, ev queue.ReservationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", ev.Type).
			Uint64("reservation_id", ev.ReservationID).
			Msg("publish reservation event failed")
	}
}
