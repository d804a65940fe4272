package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/roomescape-reservation/internal/model"
	"github.com/iliyamo/roomescape-reservation/internal/queue"
	"github.com/iliyamo/roomescape-reservation/internal/repository"
	"github.com/iliyamo/roomescape-reservation/internal/repository/memstore"
)

// --- Fakes ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// countingLedger counts inserts on top of a real store.
type countingLedger struct {
	Ledger
	inserts int
}

func (l *countingLedger) Insert(ctx context.Context, r *model.Reservation) error {
	l.inserts++
	return l.Ledger.Insert(ctx, r)
}

// racingLedger simulates a concurrent writer that takes the slot between
// the existence check and the insert.
type racingLedger struct {
	Ledger
}

func (racingLedger) ExistsByDateTimeTheme(context.Context, string, uint64, uint64) (bool, error) {
	return false, nil
}

func (racingLedger) Insert(context.Context, *model.Reservation) error {
	return repository.ErrDuplicateSlot
}

// --- Fixture ---

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memstore.Store
	ledger *countingLedger
	events *recordingPublisher
	svc    *ReservationService
	now    time.Time
	slot   model.TimeSlot
	theme  model.Theme
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:  memstore.New(),
		events: &recordingPublisher{},
		now:    fixedNow,
	}
	f.ledger = &countingLedger{Ledger: f.store}
	f.slot = model.TimeSlot{StartAt: "10:00"}
	require.NoError(t, f.store.CreateTimeSlot(ctx, &f.slot))
	f.theme = model.Theme{Name: "Haunted Library"}
	require.NoError(t, f.store.CreateTheme(ctx, &f.theme))

	f.svc = NewReservationService(f.store, f.ledger,
		WithPublisher(f.events),
		WithLocation(time.UTC),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

const tomorrow = "2026-10-19"

func (f *fixture) create(date string) (*model.Reservation, error) {
	return f.svc.Create(context.Background(), CreateReservationInput{Date: date, TimeID: f.slot.ID, ThemeID: f.theme.ID})
}

// --- Admission ---

func TestCreateReservation(t *testing.T) {
	f := newFixture(t)

	res, err := f.create(tomorrow)
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, tomorrow, res.Date)
	assert.Equal(t, f.slot.ID, res.TimeID)
	assert.Equal(t, "10:00", res.StartAt)
	assert.Equal(t, f.theme.ID, res.ThemeID)
	assert.Equal(t, []string{queue.EventReservationCreated}, f.events.types())
	assert.Equal(t, f.theme.Name, f.events.events[0].ThemeName)
}

func TestCreateReservationDuplicateSlot(t *testing.T) {
	f := newFixture(t)

	_, err := f.create(tomorrow)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.create(tomorrow)
		require.ErrorIs(t, err, ErrDuplicateSlot)
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, f.ledger.inserts)
}

func TestCreateReservationSameSlotOtherTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := model.Theme{Name: "Space Station"}
	require.NoError(t, f.store.CreateTheme(ctx, &other))

	_, err := f.create(tomorrow)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateReservationInput{Date: tomorrow, TimeID: f.slot.ID, ThemeID: other.ID})
	assert.NoError(t, err)
}

func TestCreateReservationUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateReservationInput{Date: tomorrow, TimeID: 999, ThemeID: f.theme.ID})
	require.ErrorIs(t, err, ErrTimeSlotNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Create(ctx, CreateReservationInput{Date: tomorrow, TimeID: f.slot.ID, ThemeID: 999})
	require.ErrorIs(t, err, ErrThemeNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, f.ledger.inserts)
	assert.Empty(t, f.events.types())
}

func TestCreateReservationPastBoundary(t *testing.T) {
	f := newFixture(t)
	slotToday := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

	// one nanosecond after the slot start is already in the past
	f.now = slotToday.Add(time.Nanosecond)
	_, err := f.create("2026-10-18")
	require.ErrorIs(t, err, ErrPastDateTime)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.create("2026-10-17")
	assert.ErrorIs(t, err, ErrPastDateTime)

	// exactly now is allowed
	f.now = slotToday
	res, err := f.create("2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", res.Date)
}

func TestCreateReservationInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []CreateReservationInput{
		{TimeID: f.slot.ID, ThemeID: f.theme.ID},
		{Date: tomorrow, ThemeID: f.theme.ID},
		{Date: tomorrow, TimeID: f.slot.ID},
		{Date: "19-10-2026", TimeID: f.slot.ID, ThemeID: f.theme.ID},
	}
	for _, in := range cases {
		_, err := f.svc.Create(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidArgument, "%+v", in)
	}
	assert.Zero(t, f.ledger.inserts)
}

func TestCreateReservationStorageConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewReservationService(f.store, racingLedger{Ledger: f.store},
		WithLocation(time.UTC),
		WithClock(func() time.Time { return fixedNow }),
	)

	_, err := svc.Create(context.Background(), CreateReservationInput{Date: tomorrow, TimeID: f.slot.ID, ThemeID: f.theme.ID})
	assert.ErrorIs(t, err, ErrDuplicateSlot)
}

func TestCreateReservationSnapshotsStartTime(t *testing.T) {
	f := newFixture(t)
	res, err := f.create(tomorrow)
	require.NoError(t, err)

	res.StartAt = "23:00" // callers get a copy
	got, err := f.svc.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.StartAt)
}

func TestCreateReservationPublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	res, err := f.create(tomorrow)
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
}

// --- Availability ---

func TestAvailableTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// booked state is matched by slot id
	twin := model.TimeSlot{StartAt: "12:00"}
	require.NoError(t, f.store.CreateTimeSlot(ctx, &twin))
	late := model.TimeSlot{StartAt: "18:30"}
	require.NoError(t, f.store.CreateTimeSlot(ctx, &late))
	other := model.Theme{Name: "Pirate Ship"}
	require.NoError(t, f.store.CreateTheme(ctx, &other))

	_, err := f.svc.Create(ctx, CreateReservationInput{Date: tomorrow, TimeID: twin.ID, ThemeID: f.theme.ID})
	require.NoError(t, err)
	// other theme and other date must not leak into the grid
	_, err = f.svc.Create(ctx, CreateReservationInput{Date: tomorrow, TimeID: f.slot.ID, ThemeID: other.ID})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateReservationInput{Date: "2026-10-20", TimeID: late.ID, ThemeID: f.theme.ID})
	require.NoError(t, err)

	got, err := f.svc.AvailableTimes(ctx, tomorrow, f.theme.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.AvailableTime{
		{TimeID: f.slot.ID, StartAt: "10:00", AlreadyBooked: false},
		{TimeID: twin.ID, StartAt: "12:00", AlreadyBooked: true},
		{TimeID: late.ID, StartAt: "18:30", AlreadyBooked: false},
	}, got)
}

func TestAvailableTimesUnknownThemeAllFree(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.AvailableTimes(context.Background(), tomorrow, 42)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].AlreadyBooked)
}

func TestAvailableTimesInvalidInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AvailableTimes(context.Background(), "tomorrow", f.theme.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.svc.AvailableTimes(context.Background(), tomorrow, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// --- Query facade ---

func TestGetReservationNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), 7)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := f.create(tomorrow)
	require.NoError(t, err)
	second, err := f.create("2026-10-20")
	require.NoError(t, err)

	list, err = f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestDeleteReservationIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.create(tomorrow)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, res.ID))
	_, err = f.svc.Get(ctx, res.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	require.NoError(t, f.svc.Delete(ctx, res.ID))
	require.NoError(t, f.svc.Delete(ctx, 12345))

	assert.Equal(t, []string{queue.EventReservationCreated, queue.EventReservationDeleted}, f.events.types())
}

func TestReservationLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.create(tomorrow)
	require.NoError(t, err)

	_, err = f.create(tomorrow)
	require.ErrorIs(t, err, ErrConflict)

	grid, err := f.svc.AvailableTimes(ctx, tomorrow, f.theme.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.AvailableTime{{TimeID: f.slot.ID, StartAt: "10:00", AlreadyBooked: true}}, grid)

	require.NoError(t, f.svc.Delete(ctx, res.ID))

	grid, err = f.svc.AvailableTimes(ctx, tomorrow, f.theme.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.AvailableTime{{TimeID: f.slot.ID, StartAt: "10:00", AlreadyBooked: false}}, grid)

	// the freed slot can be booked again
	_, err = f.create(tomorrow)
	assert.NoError(t, err)
}

func TestNewReservationServicePanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewReservationService(nil, memstore.New()) })
	assert.Panics(t, func() { NewReservationService(memstore.New(), nil) })
}

func TestCreateReservationDefaultsToUTC(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	slot := model.TimeSlot{StartAt: "10:00"}
	require.NoError(t, store.CreateTimeSlot(ctx, &slot))
	theme := model.Theme{Name: "Clock Tower"}
	require.NoError(t, store.CreateTheme(ctx, &theme))

	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	svc := NewReservationService(store, store, WithClock(func() time.Time { return now }))

	_, err := svc.Create(ctx, CreateReservationInput{Date: "2026-10-18", TimeID: slot.ID, ThemeID: theme.ID})
	require.NoError(t, err)

	now = time.Date(2026, 10, 18, 10, 0, 1, 0, time.UTC)
	other := model.Theme{Name: "Sunken Ship"}
	require.NoError(t, store.CreateTheme(ctx, &other))
	_, err = svc.Create(ctx, CreateReservationInput{Date: "2026-10-18", TimeID: slot.ID, ThemeID: other.ID})
	assert.ErrorIs(t, err, ErrPastDateTime)
}

// vanishingLedger reports a catalog entry removed between lookup and insert.
type vanishingLedger struct {
	Ledger
	err error
}

func (l vanishingLedger) Insert(context.Context, *model.Reservation) error { return l.err }

func TestCreateReservationParentDeletedBeforeInsert(t *testing.T) {
	f := newFixture(t)
	in := CreateReservationInput{Date: tomorrow, TimeID: f.slot.ID, ThemeID: f.theme.ID}
	opts := []Option{WithLocation(time.UTC), WithClock(func() time.Time { return fixedNow })}

	svc := NewReservationService(f.store, vanishingLedger{Ledger: f.store, err: repository.ErrTimeSlotNotFound}, opts...)
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrTimeSlotNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	svc = NewReservationService(f.store, vanishingLedger{Ledger: f.store, err: repository.ErrThemeNotFound}, opts...)
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrThemeNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}
