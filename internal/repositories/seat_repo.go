package repositories

import (
	"context"

	intdb "bookbus/internal/db"
	"bookbus/internal/domain/models"
)

// listSeats loads the seat roster of a bus in id order.
func listSeats(ctx context.Context, q intdb.Querier, busID int64) ([]models.Seat, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, bus_id, name, seat_class, fare FROM seats WHERE bus_id = ? ORDER BY id`, busID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Seat{}
	for rows.Next() {
		var s models.Seat
		var class string
		if err := rows.Scan(&s.ID, &s.BusID, &s.Name, &class, &s.Fare); err != nil {
			return nil, err
		}
		s.Class = models.SeatClass(class)
		out = append(out, s)
	}
	return out, rows.Err()
}
