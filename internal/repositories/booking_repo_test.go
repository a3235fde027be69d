package repositories

import (
	"context"
	"testing"
	"time"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookedSegmentsGroupsBySeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT seat_id, board_order, alight_order").WithArgs(int64(7), travelDay).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id", "board_order", "alight_order"}).
			AddRow(1, 1, 3).AddRow(1, 3, 4).AddRow(2, 2, 4))

	got, err := BookingRepo{DB: db}.BookedSegments(context.Background(), 7, travelDay)
	require.NoError(t, err)
	assert.Equal(t, []domain.Segment{{Board: 1, Alight: 3}, {Board: 3, Alight: 4}}, got[1])
	assert.Equal(t, []domain.Segment{{Board: 2, Alight: 4}}, got[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingListFiltersAndPages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings b WHERE 1=1 AND b.operator_id = \? AND b.status = \?`).
		WithArgs(int64(9), "Confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery("FROM bookings b LEFT JOIN seats s").
		WithArgs(int64(9), "Confirmed", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reference", "bus_id", "seat_id", "seat_name", "customer_id", "operator_id",
			"travel_date", "board_stop_id", "board_order", "alight_stop_id", "alight_order",
			"fare", "status", "passenger_name", "passenger_email", "passenger_phone",
			"created_at", "cancelled_at",
		}).AddRow(
			int64(31), "ref-31", int64(7), int64(3), "G3", int64(5), int64(9),
			travelDay, int64(11), 1, int64(13), 3,
			int64(100), "Confirmed", "Ana", "ana@example.com", "",
			created, nil,
		))

	out, total, err := BookingRepo{DB: db}.List(context.Background(),
		models.BookingFilter{OperatorID: 9, Status: models.BookingConfirmed},
		domain.Pagination{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, out, 1)
	assert.Equal(t, "G3", out[0].SeatName)
	assert.Equal(t, models.BookingConfirmed, out[0].Status)
	assert.Nil(t, out[0].CancelledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusCandidatesRequiresAStop(t *testing.T) {
	_, err := BusRepo{}.Candidates(context.Background(), 0, 0)
	assert.True(t, domain.IsValidation(err))
}

func TestBusDeleteRefusedWhenBooked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE bus_id = \?`).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectRollback()

	err = BusRepo{DB: db}.Delete(context.Background(), 7)
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func updatedBus() models.Bus {
	return models.Bus{
		ID:            7,
		Name:          "Night Coach",
		StartTime:     time.Date(2026, 11, 1, 20, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC),
		OperatingDays: models.NewWeekdaySet(time.Monday),
	}
}

func TestBusUpdateRouteRefusedWithUpcomingBookings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	route := []models.RouteStop{
		{Stop: models.Stop{ID: 15}, Order: 1, ArrivalTime: "19:00"},
		{Stop: models.Stop{ID: 11}, Order: 2, ArrivalTime: "20:00"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE buses SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings\s+WHERE bus_id = \? AND travel_date >= \? AND active_key IS NOT NULL\s+FOR UPDATE`).
		WithArgs(int64(7), today).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	err = BusRepo{DB: db}.Update(context.Background(), updatedBus(), route, today)
	assert.True(t, domain.IsConflict(err), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet(), "route rows must stay untouched")
}

func TestBusUpdateReplacesRouteWhenUnbooked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	route := []models.RouteStop{
		{Stop: models.Stop{ID: 15}, Order: 1, ArrivalTime: "19:00"},
		{Stop: models.Stop{ID: 11}, Order: 2, ArrivalTime: "20:00"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE buses SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).WithArgs(int64(7), today).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM route_stops WHERE bus_id = \?`).WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO route_stops`).WithArgs(int64(7), int64(15), 1, "19:00", false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO route_stops`).WithArgs(int64(7), int64(11), 2, "20:00", false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, BusRepo{DB: db}.Update(context.Background(), updatedBus(), route, today))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusUpdateScheduleOnlySkipsBookingCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE buses SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, BusRepo{DB: db}.Update(context.Background(), updatedBus(), nil, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusSegmentReadsCurrentOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT stop_id, stop_order FROM route_stops\s+WHERE bus_id = \? AND stop_id IN \(\?, \?\)\s+LOCK IN SHARE MODE`).
		WithArgs(int64(7), int64(12), int64(14)).
		WillReturnRows(sqlmock.NewRows([]string{"stop_id", "stop_order"}).AddRow(12, 3).AddRow(14, 5))
	seg, err := BusRepo{}.segment(context.Background(), db, 7, 12, 14)
	require.NoError(t, err)
	assert.Equal(t, domain.Segment{Board: 3, Alight: 5}, seg)

	mock.ExpectQuery(`SELECT stop_id, stop_order FROM route_stops`).
		WithArgs(int64(7), int64(11), int64(13)).
		WillReturnRows(sqlmock.NewRows([]string{"stop_id", "stop_order"}).AddRow(11, 1))
	_, err = BusRepo{}.segment(context.Background(), db, 7, 11, 13)
	assert.ErrorIs(t, err, domain.ErrStopNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
