package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/roomescape-reservation/internal/model"
	"github.com/iliyamo/roomescape-reservation/internal/repository"
)

// Defaults for the popular themes ranking.
const (
	DefaultPopularWindowDays = 7
	DefaultPopularLimit      = 10
)

// CatalogService manages time slots and themes.
type CatalogService struct {
	store CatalogStore
	log   zerolog.Logger
	now   func() time.Time
	loc   *time.Location

	popularWindowDays int
	popularLimit      int
}

// NewCatalogService wires a catalog service to its store.  Publisher
// options are ignored; catalog changes emit no events.
func NewCatalogService(store CatalogStore, opts ...Option) *CatalogService {
	if store == nil {
		panic("nil dependency passed to NewCatalogService")
	}
	o := buildOptions(opts)
	return &CatalogService{
		store:             store,
		log:               o.log,
		now:               o.now,
		loc:               o.loc,
		popularWindowDays: DefaultPopularWindowDays,
		popularLimit:      DefaultPopularLimit,
	}
}

// SetPopularRanking overrides the look-back window (days) and result size
// of PopularThemes.  Non-positive values keep the current setting.
func (s *CatalogService) SetPopularRanking(windowDays, limit int) {
	if windowDays > 0 {
		s.popularWindowDays = windowDays
	}
	if limit > 0 {
		s.popularLimit = limit
	}
}

// CreateTimeSlot adds a start time (HH:MM) to the catalog.
func (s *CatalogService) CreateTimeSlot(ctx context.Context, startAt string) (*model.TimeSlot, error) {
	if strings.TrimSpace(startAt) == "" {
		return nil, invalidArgument("start_at is required")
	}
	hm, err := model.NormalizeClock(startAt)
	if err != nil {
		return nil, invalidArgument("start_at must be formatted as HH:MM")
	}
	ts := &model.TimeSlot{StartAt: hm}
	if err := s.store.CreateTimeSlot(ctx, ts); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateTimeSlot
		}
		return nil, fmt.Errorf("create time slot: %w", err)
	}
	s.log.Info().Uint64("time_id", ts.ID).Str("start_at", ts.StartAt).Msg("time slot created")
	return ts, nil
}

// ListTimeSlots returns the catalog's slots in ID order.
func (s *CatalogService) ListTimeSlots(ctx context.Context) ([]model.TimeSlot, error) {
	out, err := s.store.ListTimeSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return out, nil
}

// DeleteTimeSlot removes a slot.  Unknown IDs succeed; slots referenced by
// reservations yield ErrTimeSlotInUse.
func (s *CatalogService) DeleteTimeSlot(ctx context.Context, id uint64) error {
	deleted, err := s.store.DeleteTimeSlot(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return ErrTimeSlotInUse
		}
		return fmt.Errorf("delete time slot %d: %w", id, err)
	}
	if deleted {
		s.log.Info().Uint64("time_id", id).Msg("time slot deleted")
	}
	return nil
}

// CreateThemeInput describes a new theme.
type CreateThemeInput struct {
	Name        string
	Description string
	Thumbnail   string
}

// CreateTheme adds a theme to the catalog.
func (s *CatalogService) CreateTheme(ctx context.Context, in CreateThemeInput) (*model.Theme, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidArgument("name is required")
	}
	t := &model.Theme{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Thumbnail:   strings.TrimSpace(in.Thumbnail),
	}
	if err := s.store.CreateTheme(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateTheme
		}
		return nil, fmt.Errorf("create theme: %w", err)
	}
	s.log.Info().Uint64("theme_id", t.ID).Str("name", t.Name).Msg("theme created")
	return t, nil
}

// ListThemes returns all themes in ID order.
func (s *CatalogService) ListThemes(ctx context.Context) ([]model.Theme, error) {
	out, err := s.store.ListThemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return out, nil
}

// PopularThemes ranks themes by reservations dated within the last
// popularWindowDays days, excluding today.
func (s *CatalogService) PopularThemes(ctx context.Context) ([]model.Theme, error) {
	today := s.now().In(s.loc)
	from := today.AddDate(0, 0, -s.popularWindowDays).Format(model.DateLayout)
	to := today.AddDate(0, 0, -1).Format(model.DateLayout)
	out, err := s.store.PopularThemes(ctx, from, to, s.popularLimit)
	if err != nil {
		return nil, fmt.Errorf("popular themes: %w", err)
	}
	return out, nil
}

// DeleteTheme removes a theme.  Unknown IDs succeed; themes referenced by
// reservations yield ErrThemeInUse.
func (s *CatalogService) DeleteTheme(ctx context.Context, id uint64) error {
	deleted, err := s.store.DeleteTheme(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return ErrThemeInUse
		}
		return fmt.Errorf("delete theme %d: %w", id, err)
	}
	if deleted {
		s.log.Info().Uint64("theme_id", id).Msg("theme deleted")
	}
	return nil
}
