package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "bookbus/internal/config"
	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
)

type BusRepo struct {
	DB *sql.DB
}

func (r BusRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Create stores the bus with its route and seat roster in one transaction.
func (r BusRepo) Create(ctx context.Context, b models.Bus) (int64, error) {
	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO buses (name, operator_id, start_time, end_time, operating_days)
		VALUES (?, ?, ?, ?, ?)
	`, b.Name, b.OperatorID, b.StartTime, b.EndTime, uint8(b.OperatingDays))
	if err != nil {
		return 0, fmt.Errorf("insert bus: %w", err)
	}
	busID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertRoute(ctx, tx, busID, b.Route); err != nil {
		return 0, err
	}
	for _, s := range b.Seats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seats (bus_id, name, seat_class, fare) VALUES (?, ?, ?, ?)`,
			busID, s.Name, string(s.Class), s.Fare); err != nil {
			if intdb.IsDuplicateKey(err) {
				return 0, domain.ConflictError{Resource: "seat", Msg: fmt.Sprintf("duplicate seat name %q", s.Name), Err: err}
			}
			return 0, fmt.Errorf("insert seat %s: %w", s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return busID, nil
}

// Update rewrites the schedule fields. When route is non-nil the stored route is
// replaced as a whole: old rows are deleted and the new 1..N rows inserted in the
// same transaction, so readers never see a half-renumbered route.
// Bookings keep stop orders, so a route is only replaced while no active booking
// travels on or after bookedFrom.
func (r BusRepo) Update(ctx context.Context, b models.Bus, route []models.RouteStop, bookedFrom time.Time) error {
	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE buses SET name = ?, start_time = ?, end_time = ?, operating_days = ?
		WHERE id = ?
	`, b.Name, b.StartTime, b.EndTime, uint8(b.OperatingDays), b.ID)
	if err != nil {
		return fmt.Errorf("update bus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM buses WHERE id = ?`, b.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.NotFoundError{Resource: "bus"}
		}
	}

	if route != nil {
		var n int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE bus_id = ? AND travel_date >= ? AND active_key IS NOT NULL
			FOR UPDATE
		`, b.ID, bookedFrom).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return domain.ConflictError{Resource: "bus", Msg: fmt.Sprintf("route cannot change while %d upcoming bookings exist", n)}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM route_stops WHERE bus_id = ?`, b.ID); err != nil {
			return fmt.Errorf("clear route: %w", err)
		}
		if err := insertRoute(ctx, tx, b.ID, route); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertRoute(ctx context.Context, tx *sql.Tx, busID int64, route []models.RouteStop) error {
	for _, rs := range route {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO route_stops (bus_id, stop_id, stop_order, arrival_time, next_day)
			VALUES (?, ?, ?, ?, ?)
		`, busID, rs.Stop.ID, rs.Order, rs.ArrivalTime, rs.NextDay); err != nil {
			if intdb.IsDuplicateKey(err) {
				return domain.ValidationError{Field: "route", Msg: "a stop may appear only once per route", Err: err}
			}
			return fmt.Errorf("insert route stop %d: %w", rs.Order, err)
		}
	}
	return nil
}

// segment reads the current orders of two stops and share-locks those route rows
// so a concurrent route replacement waits for the caller's transaction.
func (r BusRepo) segment(ctx context.Context, q intdb.Querier, busID, boardStopID, alightStopID int64) (domain.Segment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT stop_id, stop_order FROM route_stops
		WHERE bus_id = ? AND stop_id IN (?, ?)
		LOCK IN SHARE MODE
	`, busID, boardStopID, alightStopID)
	if err != nil {
		return domain.Segment{}, err
	}
	defer rows.Close()

	orders := map[int64]int{}
	for rows.Next() {
		var stopID int64
		var order int
		if err := rows.Scan(&stopID, &order); err != nil {
			return domain.Segment{}, err
		}
		orders[stopID] = order
	}
	if err := rows.Err(); err != nil {
		return domain.Segment{}, err
	}
	for _, id := range []int64{boardStopID, alightStopID} {
		if _, ok := orders[id]; !ok {
			return domain.Segment{}, domain.Reject(domain.ErrStopNotFound, "stop %d is not on bus %d", id, busID)
		}
	}
	seg := domain.Segment{Board: orders[boardStopID], Alight: orders[alightStopID]}
	if err := seg.Validate(); err != nil {
		return domain.Segment{}, err
	}
	return seg, nil
}

// Delete removes a bus that has never been booked. Bookings are history and are
// never removed to make room for a schedule change.
func (r BusRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE bus_id = ? FOR UPDATE`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return domain.ConflictError{Resource: "bus", Msg: "bus has bookings and cannot be deleted"}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM buses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.NotFoundError{Resource: "bus"}
	}
	return tx.Commit()
}

// Get loads a bus with its route (in stop order) and seats.
func (r BusRepo) Get(ctx context.Context, id int64) (models.Bus, error) {
	return r.get(ctx, r.db(), id)
}

func (r BusRepo) get(ctx context.Context, q intdb.Querier, id int64) (models.Bus, error) {
	var (
		b    models.Bus
		days uint8
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, operator_id, start_time, end_time, operating_days, created_at
		FROM buses WHERE id = ?
	`, id).Scan(&b.ID, &b.Name, &b.OperatorID, &b.StartTime, &b.EndTime, &days, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bus{}, domain.NotFoundError{Resource: "bus", Err: err}
	}
	if err != nil {
		return models.Bus{}, err
	}
	b.OperatingDays = models.WeekdaySet(days)

	if b.Route, err = r.route(ctx, q, id); err != nil {
		return models.Bus{}, err
	}
	if b.Seats, err = listSeats(ctx, q, id); err != nil {
		return models.Bus{}, err
	}
	return b, nil
}

func (r BusRepo) route(ctx context.Context, q intdb.Querier, busID int64) ([]models.RouteStop, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT rs.id, rs.bus_id, rs.stop_order, rs.arrival_time, rs.next_day,
		       s.id, s.name, s.latitude, s.longitude
		FROM route_stops rs
		JOIN stops s ON s.id = rs.stop_id
		WHERE rs.bus_id = ?
		ORDER BY rs.stop_order
	`, busID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.RouteStop{}
	for rows.Next() {
		var (
			rs       models.RouteStop
			arrival  string
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&rs.ID, &rs.BusID, &rs.Order, &arrival, &rs.NextDay,
			&rs.Stop.ID, &rs.Stop.Name, &lat, &lng); err != nil {
			return nil, err
		}
		if len(arrival) > 5 {
			arrival = arrival[:5]
		}
		rs.ArrivalTime = arrival
		if lat.Valid && lng.Valid {
			rs.Stop.Latitude, rs.Stop.Longitude = &lat.Float64, &lng.Float64
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// ListByOperator returns the operator's buses, newest first, without seats.
func (r BusRepo) ListByOperator(ctx context.Context, operatorID int64) ([]models.Bus, error) {
	ids, err := r.ids(ctx, `SELECT id FROM buses WHERE operator_id = ? ORDER BY id DESC`, operatorID)
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, ids)
}

// Candidates returns buses whose route contains both stops with from before to.
// A zero id drops that side of the filter.
func (r BusRepo) Candidates(ctx context.Context, fromStopID, toStopID int64) ([]models.Bus, error) {
	var (
		query string
		args  []any
	)
	switch {
	case fromStopID > 0 && toStopID > 0:
		query = `
			SELECT DISTINCT f.bus_id
			FROM route_stops f
			JOIN route_stops t ON t.bus_id = f.bus_id
			WHERE f.stop_id = ? AND t.stop_id = ? AND f.stop_order < t.stop_order
			ORDER BY f.bus_id`
		args = []any{fromStopID, toStopID}
	case fromStopID > 0:
		query = `SELECT DISTINCT bus_id FROM route_stops WHERE stop_id = ? ORDER BY bus_id`
		args = []any{fromStopID}
	case toStopID > 0:
		query = `SELECT DISTINCT bus_id FROM route_stops WHERE stop_id = ? ORDER BY bus_id`
		args = []any{toStopID}
	default:
		return nil, domain.ValidationError{Field: "from", Msg: "from or to stop is required"}
	}

	ids, err := r.ids(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, ids)
}

func (r BusRepo) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r BusRepo) loadAll(ctx context.Context, ids []int64) ([]models.Bus, error) {
	out := make([]models.Bus, 0, len(ids))
	for _, id := range ids {
		b, err := r.get(ctx, r.db(), id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
