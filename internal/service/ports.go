package service

import (
	"context"

	"github.com/iliyamo/roomescape-reservation/internal/model"
	"github.com/iliyamo/roomescape-reservation/internal/queue"
)

// Catalog is the read side of the time/theme catalog.  Lookups return
// repository.ErrTimeSlotNotFound / repository.ErrThemeNotFound when the
// entity is absent.
type Catalog interface {
	FindTimeSlot(ctx context.Context, id uint64) (*model.TimeSlot, error)
	ListTimeSlots(ctx context.Context) ([]model.TimeSlot, error)
	FindTheme(ctx context.Context, id uint64) (*model.Theme, error)
}

// CatalogStore adds the administrative operations on the catalog.
type CatalogStore interface {
	Catalog
	CreateTimeSlot(ctx context.Context, ts *model.TimeSlot) error
	DeleteTimeSlot(ctx context.Context, id uint64) (bool, error)
	CreateTheme(ctx context.Context, t *model.Theme) error
	ListThemes(ctx context.Context) ([]model.Theme, error)
	DeleteTheme(ctx context.Context, id uint64) (bool, error)
	PopularThemes(ctx context.Context, from, to string, limit int) ([]model.Theme, error)
}

// Ledger persists reservations.  Insert must enforce (date, time, theme)
// uniqueness itself and report a violation as repository.ErrDuplicateSlot;
// the service's existence check alone is not atomic with the insert.
type Ledger interface {
	ExistsByDateTimeTheme(ctx context.Context, date string, timeID, themeID uint64) (bool, error)
	Insert(ctx context.Context, r *model.Reservation) error
	FindAll(ctx context.Context) ([]model.Reservation, error)
	FindByID(ctx context.Context, id uint64) (*model.Reservation, error)
	FindAllByDateAndTheme(ctx context.Context, date string, themeID uint64) ([]model.Reservation, error)
	DeleteByID(ctx context.Context, id uint64) (bool, error)
}

// Publisher delivers reservation lifecycle events.  Delivery is best
// effort: failures are logged and never fail the originating request.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// NopPublisher drops every event.  It is used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ReservationEvent) error { return nil }
