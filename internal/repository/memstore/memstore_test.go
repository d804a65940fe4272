package memstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/roomescape-reservation/internal/model"
	"github.com/iliyamo/roomescape-reservation/internal/repository"
)

func seed(t *testing.T) (*Store, model.TimeSlot, model.Theme) {
	t.Helper()
	ctx := context.Background()
	s := New()
	ts := model.TimeSlot{StartAt: "10:00"}
	require.NoError(t, s.CreateTimeSlot(ctx, &ts))
	th := model.Theme{Name: "Lost Temple"}
	require.NoError(t, s.CreateTheme(ctx, &th))
	return s, ts, th
}

func TestInsertConcurrentSameSlot(t *testing.T) {
	s, ts, th := seed(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := model.Reservation{Date: "2030-01-01", TimeID: ts.ID, StartAt: ts.StartAt, ThemeID: th.ID}
			err := s.Insert(ctx, &r)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, repository.ErrDuplicateSlot):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, succeeded.Load())
	assert.EqualValues(t, 31, conflicts.Load())
}

func TestDeleteReleasesSlot(t *testing.T) {
	s, ts, th := seed(t)
	ctx := context.Background()

	r := model.Reservation{Date: "2030-01-01", TimeID: ts.ID, StartAt: ts.StartAt, ThemeID: th.ID}
	require.NoError(t, s.Insert(ctx, &r))

	deleted, err := s.DeleteByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteByID(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := s.ExistsByDateTimeTheme(ctx, r.Date, ts.ID, th.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCatalogDeleteInUse(t *testing.T) {
	s, ts, th := seed(t)
	ctx := context.Background()
	r := model.Reservation{Date: "2030-01-01", TimeID: ts.ID, StartAt: ts.StartAt, ThemeID: th.ID}
	require.NoError(t, s.Insert(ctx, &r))

	_, err := s.DeleteTimeSlot(ctx, ts.ID)
	assert.ErrorIs(t, err, repository.ErrInUse)
	_, err = s.DeleteTheme(ctx, th.ID)
	assert.ErrorIs(t, err, repository.ErrInUse)
}

func TestPopularThemesOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	slots := []model.TimeSlot{{StartAt: "10:00"}, {StartAt: "12:00"}}
	for i := range slots {
		require.NoError(t, s.CreateTimeSlot(ctx, &slots[i]))
	}
	themes := []model.Theme{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	for i := range themes {
		require.NoError(t, s.CreateTheme(ctx, &themes[i]))
	}
	book := func(date string, slot model.TimeSlot, theme model.Theme) {
		r := model.Reservation{Date: date, TimeID: slot.ID, StartAt: slot.StartAt, ThemeID: theme.ID}
		require.NoError(t, s.Insert(ctx, &r))
	}
	book("2030-01-02", slots[0], themes[1])
	book("2030-01-03", slots[1], themes[1])
	book("2030-01-02", slots[0], themes[2])
	book("2029-12-01", slots[0], themes[0]) // outside window

	got, err := s.PopularThemes(ctx, "2030-01-01", "2030-01-07", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
}
