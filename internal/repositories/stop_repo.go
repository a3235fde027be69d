package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "bookbus/internal/config"
	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
)

type StopRepo struct {
	DB *sql.DB
}

func (r StopRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r StopRepo) Create(ctx context.Context, s models.Stop) (models.Stop, error) {
	res, err := r.db().ExecContext(ctx,
		`INSERT INTO stops (name, latitude, longitude) VALUES (?, ?, ?)`,
		s.Name, nullFloat(s.Latitude), nullFloat(s.Longitude))
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return models.Stop{}, domain.ConflictError{Resource: "stop", Msg: fmt.Sprintf("%q already exists", s.Name), Err: err}
		}
		return models.Stop{}, err
	}
	s.ID, err = res.LastInsertId()
	return s, err
}

func (r StopRepo) Get(ctx context.Context, id int64) (models.Stop, error) {
	row := r.db().QueryRowContext(ctx, `SELECT id, name, latitude, longitude FROM stops WHERE id = ?`, id)
	s, err := scanStop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stop{}, domain.Reject(domain.ErrStopNotFound, "stop %d", id)
	}
	return s, err
}

// List returns stops ordered by name; q filters by a case-insensitive substring.
func (r StopRepo) List(ctx context.Context, q string) ([]models.Stop, error) {
	query := `SELECT id, name, latitude, longitude FROM stops`
	args := []any{}
	if q = strings.TrimSpace(q); q != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, "%"+q+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Stop{}
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStop(row rowScanner) (models.Stop, error) {
	var (
		s        models.Stop
		lat, lng sql.NullFloat64
	)
	if err := row.Scan(&s.ID, &s.Name, &lat, &lng); err != nil {
		return models.Stop{}, err
	}
	if lat.Valid && lng.Valid {
		s.Latitude, s.Longitude = &lat.Float64, &lng.Float64
	}
	return s, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
