// Package memstore keeps the catalog and the reservation ledger in process
// memory.  It backs STORE_DRIVER=memory and the service tests.  A single
// RWMutex guards all state, so Insert can re-check slot uniqueness and
// write in one critical section.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/roomescape-reservation/internal/model"
	"github.com/iliyamo/roomescape-reservation/internal/repository"
)

type slotKey struct {
	date    string
	timeID  uint64
	themeID uint64
}

// Store implements the catalog and ledger contracts consumed by the
// service package.
type Store struct {
	mu sync.RWMutex

	times        map[uint64]model.TimeSlot
	themes       map[uint64]model.Theme
	reservations map[uint64]model.Reservation
	bySlot       map[slotKey]uint64

	nextTimeID        uint64
	nextThemeID       uint64
	nextReservationID uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		times:        make(map[uint64]model.TimeSlot),
		themes:       make(map[uint64]model.Theme),
		reservations: make(map[uint64]model.Reservation),
		bySlot:       make(map[slotKey]uint64),
	}
}

// CreateTimeSlot stores ts and assigns its ID.
func (s *Store) CreateTimeSlot(ctx context.Context, ts *model.TimeSlot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.times {
		if existing.StartAt == ts.StartAt {
			return repository.ErrDuplicate
		}
	}
	s.nextTimeID++
	ts.ID = s.nextTimeID
	s.times[ts.ID] = *ts
	return nil
}

func (s *Store) FindTimeSlot(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.times[id]
	if !ok {
		return nil, repository.ErrTimeSlotNotFound
	}
	return &ts, nil
}

// ListTimeSlots returns all slots ordered by ID.
func (s *Store) ListTimeSlots(ctx context.Context) ([]model.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TimeSlot, 0, len(s.times))
	for _, ts := range s.times {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteTimeSlot(ctx context.Context, id uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.times[id]; !ok {
		return false, nil
	}
	for _, r := range s.reservations {
		if r.TimeID == id {
			return false, repository.ErrInUse
		}
	}
	delete(s.times, id)
	return true, nil
}

// CreateTheme stores t and assigns its ID.
func (s *Store) CreateTheme(ctx context.Context, t *model.Theme) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.themes {
		if existing.Name == t.Name {
			return repository.ErrDuplicate
		}
	}
	s.nextThemeID++
	t.ID = s.nextThemeID
	s.themes[t.ID] = *t
	return nil
}

func (s *Store) FindTheme(ctx context.Context, id uint64) (*model.Theme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.themes[id]
	if !ok {
		return nil, repository.ErrThemeNotFound
	}
	return &t, nil
}

func (s *Store) ListThemes(ctx context.Context) ([]model.Theme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Theme, 0, len(s.themes))
	for _, t := range s.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PopularThemes mirrors the MySQL ranking: reservation count in [from, to]
// descending, then theme ID.
func (s *Store) PopularThemes(ctx context.Context, from, to string, limit int) ([]model.Theme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uint64]int)
	for _, r := range s.reservations {
		// YYYY-MM-DD compares correctly as a string
		if r.Date >= from && r.Date <= to {
			counts[r.ThemeID]++
		}
	}
	out := make([]model.Theme, 0, len(counts))
	for id := range counts {
		if t, ok := s.themes[id]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := counts[out[i].ID], counts[out[j].ID]
		if ci != cj {
			return ci > cj
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteTheme(ctx context.Context, id uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.themes[id]; !ok {
		return false, nil
	}
	for _, r := range s.reservations {
		if r.ThemeID == id {
			return false, repository.ErrInUse
		}
	}
	delete(s.themes, id)
	return true, nil
}

func (s *Store) ExistsByDateTimeTheme(ctx context.Context, date string, timeID, themeID uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bySlot[slotKey{date, timeID, themeID}]
	return ok, nil
}

// Insert stores res and assigns its ID.  The slot check and the write
// share one lock, so of two concurrent inserts for the same slot exactly
// one succeeds and the other gets repository.ErrDuplicateSlot.
func (s *Store) Insert(ctx context.Context, res *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{res.Date, res.TimeID, res.ThemeID}
	if _, taken := s.bySlot[key]; taken {
		return repository.ErrDuplicateSlot
	}
	if _, ok := s.times[res.TimeID]; !ok {
		return repository.ErrTimeSlotNotFound
	}
	if _, ok := s.themes[res.ThemeID]; !ok {
		return repository.ErrThemeNotFound
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	s.nextReservationID++
	res.ID = s.nextReservationID
	s.reservations[res.ID] = *res
	s.bySlot[key] = res.ID
	return nil
}

// FindAll returns every reservation in ID (insertion) order.
func (s *Store) FindAll(ctx context.Context) ([]model.Reservation, error) {
	return s.filter(ctx, func(model.Reservation) bool { return true })
}

func (s *Store) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &r, nil
}

func (s *Store) FindAllByDateAndTheme(ctx context.Context, date string, themeID uint64) ([]model.Reservation, error) {
	return s.filter(ctx, func(r model.Reservation) bool {
		return r.Date == date && r.ThemeID == themeID
	})
}

// DeleteByID removes a reservation; unknown IDs are a no-op.
func (s *Store) DeleteByID(ctx context.Context, id uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return false, nil
	}
	delete(s.reservations, id)
	delete(s.bySlot, slotKey{r.Date, r.TimeID, r.ThemeID})
	return true, nil
}

func (s *Store) filter(ctx context.Context, keep func(model.Reservation) bool) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Reservation, 0)
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
