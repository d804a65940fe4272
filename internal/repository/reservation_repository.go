package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/roomescape-reservation/internal/model"
)

// ReservationRepo is the MySQL-backed reservation ledger.  The reservations
// table carries a unique key on (date, time_id, theme_id) so concurrent
// inserts for the same slot cannot both succeed; the losing insert is
// reported as ErrDuplicateSlot.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, date, time_id, start_at, theme_id, created_at`

// ExistsByDateTimeTheme reports whether a reservation already holds the
// given slot.
func (r *ReservationRepo) ExistsByDateTimeTheme(ctx context.Context, date string, timeID, themeID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE date = ? AND time_id = ? AND theme_id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, date, timeID, themeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Insert stores res and populates its generated ID.  A violation of the
// slot uniqueness key yields ErrDuplicateSlot; a time slot or theme deleted
// since it was looked up yields ErrTimeSlotNotFound or ErrThemeNotFound.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO reservations (date, time_id, start_at, theme_id, created_at) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.Date, res.TimeID, res.StartAt, res.ThemeID, res.CreatedAt.UTC())
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrDuplicateSlot
		}
		if me, ok := mysqlError(err, mysqlNoReferencedRow, mysqlNoReferencedRow2); ok {
			return r.missingParent(ctx, me, res)
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// missingParent names the catalog entry a foreign key failure refers to,
// by constraint name when the server reports it and by lookup otherwise.
func (r *ReservationRepo) missingParent(ctx context.Context, me *mysql.MySQLError, res *model.Reservation) error {
	switch {
	case strings.Contains(me.Message, "fk_reservations_time"):
		return ErrTimeSlotNotFound
	case strings.Contains(me.Message, "fk_reservations_theme"):
		return ErrThemeNotFound
	}
	const q = `SELECT EXISTS(SELECT 1 FROM reservation_times WHERE id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, res.TimeID).Scan(&exists); err != nil {
		return fmt.Errorf("resolve foreign key failure: %w", err)
	}
	if !exists {
		return ErrTimeSlotNotFound
	}
	return ErrThemeNotFound
}

// FindAll returns every reservation in ID order.
func (r *ReservationRepo) FindAll(ctx context.Context) ([]model.Reservation, error) {
	return r.query(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id`)
}

// FindByID returns the reservation with the given ID or ErrReservationNotFound.
func (r *ReservationRepo) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return res, nil
}

// FindAllByDateAndTheme returns the reservations booked for a theme on a date.
func (r *ReservationRepo) FindAllByDateAndTheme(ctx context.Context, date string, themeID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE date = ? AND theme_id = ? ORDER BY time_id`
	return r.query(ctx, q, date, themeID)
}

// DeleteByID removes a reservation.  Deleting an unknown ID is not an
// error; the boolean reports whether a row was removed.
func (r *ReservationRepo) DeleteByID(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReservationRepo) query(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReservation reads one row selected with reservationColumns.  DATE
// arrives as time.Time (parseTime=true) and TIME as HH:MM:SS text.
func scanReservation(s rowScanner) (*model.Reservation, error) {
	var (
		res     model.Reservation
		date    time.Time
		startAt string
	)
	if err := s.Scan(&res.ID, &date, &res.TimeID, &startAt, &res.ThemeID, &res.CreatedAt); err != nil {
		return nil, err
	}
	hm, err := model.NormalizeClock(startAt)
	if err != nil {
		return nil, err
	}
	res.Date = date.Format(model.DateLayout)
	res.StartAt = hm
	res.CreatedAt = res.CreatedAt.UTC()
	return &res, nil
}
