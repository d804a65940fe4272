package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roomescape-reservation/internal/model"
)

// TimeRepo provides access to the reservation_times table, the catalog of
// reservable start times.
type TimeRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewTimeRepo constructs a TimeRepo with the given DB handle.
func NewTimeRepo(db *sql.DB) *TimeRepo {
	return &TimeRepo{db: db}
}

// CreateTimeSlot inserts a new time slot.  StartAt must already be
// normalised to HH:MM.  On success the generated ID is set on ts.  A
// duplicate start time yields ErrDuplicate.
func (r *TimeRepo) CreateTimeSlot(ctx context.Context, ts *model.TimeSlot) error {
	const q = `INSERT INTO reservation_times (start_at) VALUES (?)`
	res, err := r.db.ExecContext(ctx, q, ts.StartAt)
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ts.ID = uint64(id)
	return nil
}

// FindTimeSlot returns the slot with the given ID or ErrTimeSlotNotFound.
func (r *TimeRepo) FindTimeSlot(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	const q = `SELECT id, start_at FROM reservation_times WHERE id = ?`
	var (
		ts  model.TimeSlot
		raw string
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&ts.ID, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTimeSlotNotFound
		}
		return nil, err
	}
	hm, err := model.NormalizeClock(raw)
	if err != nil {
		return nil, err
	}
	ts.StartAt = hm
	return &ts, nil
}

// ListTimeSlots returns every slot ordered by ID.
func (r *TimeRepo) ListTimeSlots(ctx context.Context) ([]model.TimeSlot, error) {
	const q = `SELECT id, start_at FROM reservation_times ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TimeSlot, 0)
	for rows.Next() {
		var (
			ts  model.TimeSlot
			raw string
		)
		if err := rows.Scan(&ts.ID, &raw); err != nil {
			return nil, err
		}
		if ts.StartAt, err = model.NormalizeClock(raw); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTimeSlot removes a slot.  It reports whether a row was deleted and
// returns ErrInUse when reservations still reference the slot.
func (r *TimeRepo) DeleteTimeSlot(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservation_times WHERE id = ?`, id)
	if err != nil {
		if isMySQLError(err, mysqlRowIsReferenced, mysqlRowIsReferenced2) {
			return false, ErrInUse
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
