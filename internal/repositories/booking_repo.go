package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "bookbus/internal/config"
	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
)

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// inactiveStatuses is the SQL list of statuses that release a seat.
const inactiveStatuses = `('Cancelled','Refunded')`

const bookingColumns = `
	b.id, b.reference, b.bus_id, b.seat_id, COALESCE(s.name, ''), b.customer_id, b.operator_id,
	b.travel_date, b.board_stop_id, b.board_order, b.alight_stop_id, b.alight_order,
	b.fare, b.status, b.passenger_name, COALESCE(b.passenger_email, ''), COALESCE(b.passenger_phone, ''),
	b.created_at, b.cancelled_at`

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b         models.Booking
		status    string
		cancelled sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.Reference, &b.BusID, &b.SeatID, &b.SeatName, &b.CustomerID, &b.OperatorID,
		&b.TravelDate, &b.BoardStopID, &b.BoardOrder, &b.AlightStopID, &b.AlightOrder,
		&b.Fare, &status, &b.Passenger.Name, &b.Passenger.Email, &b.Passenger.Phone,
		&b.CreatedAt, &cancelled,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(status)
	if cancelled.Valid {
		t := cancelled.Time
		b.CancelledAt = &t
	}
	return b, nil
}

func (r BookingRepo) Get(ctx context.Context, id int64) (models.Booking, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+bookingColumns+`
		FROM bookings b LEFT JOIN seats s ON s.id = b.seat_id
		WHERE b.id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	return b, err
}

// lockForUpdate reads the booking row and holds its exclusive lock until tx ends.
func (r BookingRepo) lockForUpdate(ctx context.Context, q intdb.Querier, id int64) (models.Booking, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookingColumns+`
		FROM bookings b LEFT JOIN seats s ON s.id = b.seat_id
		WHERE b.id = ? FOR UPDATE`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	return b, err
}

// List returns bookings matching f, newest first, and the total match count.
func (r BookingRepo) List(ctx context.Context, f models.BookingFilter, page domain.Pagination) ([]models.Booking, int, error) {
	page = page.Normalize()

	where := []string{"1=1"}
	args := []any{}
	if f.CustomerID > 0 {
		where = append(where, "b.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.OperatorID > 0 {
		where = append(where, "b.operator_id = ?")
		args = append(args, f.OperatorID)
	}
	if f.BusID > 0 {
		where = append(where, "b.bus_id = ?")
		args = append(args, f.BusID)
	}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if f.From != nil {
		where = append(where, "b.travel_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "b.travel_date <= ?")
		args = append(args, *f.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings b WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db().QueryContext(ctx, `SELECT `+bookingColumns+`
		FROM bookings b LEFT JOIN seats s ON s.id = b.seat_id
		WHERE `+cond+`
		ORDER BY b.travel_date DESC, b.id DESC
		LIMIT ? OFFSET ?`, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// ActiveSegments returns the stop-order segments of active bookings on one seat and date.
func (r BookingRepo) ActiveSegments(ctx context.Context, q intdb.Querier, busID, seatID int64, date time.Time) ([]domain.Segment, error) {
	if q == nil {
		q = r.db()
	}
	rows, err := q.QueryContext(ctx, `
		SELECT board_order, alight_order
		FROM bookings
		WHERE bus_id = ? AND seat_id = ? AND travel_date = ?
		  AND status NOT IN `+inactiveStatuses+`
		ORDER BY board_order`, busID, seatID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Segment{}
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.Board, &s.Alight); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// BookedSegments groups the active segments of every seat on a bus and date.
func (r BookingRepo) BookedSegments(ctx context.Context, busID int64, date time.Time) (map[int64][]domain.Segment, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT seat_id, board_order, alight_order
		FROM bookings
		WHERE bus_id = ? AND travel_date = ?
		  AND status NOT IN `+inactiveStatuses, busID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]domain.Segment{}
	for rows.Next() {
		var (
			seatID int64
			s      domain.Segment
		)
		if err := rows.Scan(&seatID, &s.Board, &s.Alight); err != nil {
			return nil, err
		}
		out[seatID] = append(out[seatID], s)
	}
	return out, rows.Err()
}

func (r BookingRepo) insert(ctx context.Context, q intdb.Querier, b *models.Booking) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO bookings (
			reference, bus_id, seat_id, customer_id, operator_id, travel_date,
			board_stop_id, board_order, alight_stop_id, alight_order,
			fare, status, passenger_name, passenger_email, passenger_phone, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Reference, b.BusID, b.SeatID, b.CustomerID, b.OperatorID, b.TravelDate,
		b.BoardStopID, b.BoardOrder, b.AlightStopID, b.AlightOrder,
		b.Fare, string(b.Status), b.Passenger.Name,
		intdb.NullIfEmpty(b.Passenger.Email), intdb.NullIfEmpty(b.Passenger.Phone), b.CreatedAt,
	)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.Reject(domain.ErrSeatUnavailable, "seat %d on %s", b.SeatID, b.TravelDate.Format("2006-01-02"))
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (r BookingRepo) setStatus(ctx context.Context, q intdb.Querier, id int64, status models.BookingStatus, cancelledAt *time.Time) error {
	var at any
	if cancelledAt != nil {
		at = *cancelledAt
	}
	res, err := q.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancelled_at = COALESCE(?, cancelled_at) WHERE id = ?`,
		string(status), at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// CompleteBefore moves every Pending/Confirmed booking travelling before asOf to
// Completed and reports how many rows moved. Running it again is a no-op.
func (r BookingRepo) CompleteBefore(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings SET status = 'Completed'
		WHERE travel_date < ? AND status IN ('Pending','Confirmed')`, asOf)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
