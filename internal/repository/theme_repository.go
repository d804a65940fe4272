package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roomescape-reservation/internal/model"
)

// ThemeRepo manages persistence for themes.
type ThemeRepo struct {
	db *sql.DB
}

// NewThemeRepo returns a ThemeRepo bound to the given database.
func NewThemeRepo(db *sql.DB) *ThemeRepo { return &ThemeRepo{db: db} }

// CreateTheme inserts a theme and sets its generated ID.  Theme names are
// unique; a collision yields ErrDuplicate.
func (r *ThemeRepo) CreateTheme(ctx context.Context, t *model.Theme) error {
	const q = `INSERT INTO themes (name, description, thumbnail) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.Description, t.Thumbnail)
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
	t.ID = uint64(id)
	return nil
}

// FindTheme returns the theme with the given ID or ErrThemeNotFound.
func (r *ThemeRepo) FindTheme(ctx context.Context, id uint64) (*model.Theme, error) {
	const q = `SELECT id, name, description, thumbnail FROM themes WHERE id = ?`
	var t model.Theme
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.Description, &t.Thumbnail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrThemeNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListThemes returns all themes ordered by ID.
func (r *ThemeRepo) ListThemes(ctx context.Context) ([]model.Theme, error) {
	return r.queryThemes(ctx, `SELECT id, name, description, thumbnail FROM themes ORDER BY id`)
}

// PopularThemes ranks themes by how many reservations they received with a
// date in [from, to] (inclusive, YYYY-MM-DD).  Ties are broken by theme ID
// and at most limit themes are returned.  Themes without reservations in
// the window are omitted.
func (r *ThemeRepo) PopularThemes(ctx context.Context, from, to string, limit int) ([]model.Theme, error) {
	const q = `SELECT t.id, t.name, t.description, t.thumbnail
               FROM themes t
               JOIN reservations r ON r.theme_id = t.id
               WHERE r.date BETWEEN ? AND ?
               GROUP BY t.id, t.name, t.description, t.thumbnail
               ORDER BY COUNT(r.id) DESC, t.id
               LIMIT ?`
	return r.queryThemes(ctx, q, from, to, limit)
}

// DeleteTheme removes a theme.  It reports whether a row was deleted and
// returns ErrInUse when reservations still reference the theme.
func (r *ThemeRepo) DeleteTheme(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM themes WHERE id = ?`, id)
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

func (r *ThemeRepo) queryThemes(ctx context.Context, q string, args ...any) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Theme, 0)
	for rows.Next() {
		var t model.Theme
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Thumbnail); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Catalog joins the time and theme repositories into the read/write
// catalog the services consume.
type Catalog struct {
	*TimeRepo
	*ThemeRepo
}

// NewCatalog builds a Catalog backed by db.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{TimeRepo: NewTimeRepo(db), ThemeRepo: NewThemeRepo(db)}
}
