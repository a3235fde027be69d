package domain

import (
	"errors"
	"testing"
	"time"

	"bookbus/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routeABCD() []models.RouteStop {
	return []models.RouteStop{
		{BusID: 7, Stop: models.Stop{ID: 11, Name: "A"}, Order: 1, ArrivalTime: "20:00"},
		{BusID: 7, Stop: models.Stop{ID: 12, Name: "B"}, Order: 2, ArrivalTime: "23:30"},
		{BusID: 7, Stop: models.Stop{ID: 13, Name: "C"}, Order: 3, ArrivalTime: "02:15", NextDay: true},
		{BusID: 7, Stop: models.Stop{ID: 14, Name: "D"}, Order: 4, ArrivalTime: "06:00", NextDay: true},
	}
}

func TestNewRouteSortsAndValidates(t *testing.T) {
	stops := routeABCD()
	stops[0], stops[3] = stops[3], stops[0]

	r, err := NewRoute(stops)
	require.NoError(t, err)
	ordered := r.StopsInOrder()
	assert.Equal(t, "A", ordered[0].Stop.Name)
	assert.Equal(t, "D", r.End().Stop.Name)
	assert.Equal(t, 4, r.Len())
}

func TestNewRouteRejectsGaps(t *testing.T) {
	stops := routeABCD()
	stops[2].Order = 5

	_, err := NewRoute(stops)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRouteCorrupt))

	_, err = NewRoute(stops[:1])
	assert.True(t, errors.Is(err, ErrRouteCorrupt))
}

func TestRouteSegmentsAndFeasibility(t *testing.T) {
	r, err := NewRoute(routeABCD())
	require.NoError(t, err)

	seg, err := r.SegmentBetween(12, 14)
	require.NoError(t, err)
	assert.Equal(t, Segment{2, 4}, seg)

	_, err = r.SegmentBetween(14, 12)
	assert.True(t, errors.Is(err, ErrInvalidSegment))

	_, err = r.SegmentBetween(11, 99)
	assert.True(t, errors.Is(err, ErrStopNotFound))

	assert.True(t, r.Serves(11, 13))
	assert.False(t, r.Serves(13, 11), "search respects travel direction")
	assert.False(t, r.Serves(11, 11))
}

func TestRouteDurationsAcrossMidnight(t *testing.T) {
	r, err := NewRoute(routeABCD())
	require.NoError(t, err)

	d, err := r.Duration(1, 4)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Hour, d)

	legs := r.LegDurations()
	assert.Equal(t, []time.Duration{0, 3*time.Hour + 30*time.Minute, 2*time.Hour + 45*time.Minute, 3*time.Hour + 45*time.Minute}, legs)
}

func TestPlanRoute(t *testing.T) {
	in := []models.RouteStopInput{
		{StopID: 3, ArrivalTime: "22:00"},
		{StopID: 1, ArrivalTime: "01:00", NextDay: true},
		{StopID: 2, ArrivalTime: "05:30", NextDay: true},
	}
	out, err := PlanRoute(9, in)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, rs := range out {
		assert.Equal(t, i+1, rs.Order)
		assert.Equal(t, int64(9), rs.BusID)
	}

	_, err = PlanRoute(9, in[:1])
	assert.True(t, IsValidation(err), "fewer than two stops")

	dup := append([]models.RouteStopInput{}, in...)
	dup[2].StopID = 3
	_, err = PlanRoute(9, dup)
	assert.True(t, IsValidation(err), "duplicate stop")

	backwards := append([]models.RouteStopInput{}, in...)
	backwards[1].NextDay = false
	_, err = PlanRoute(9, backwards)
	assert.True(t, IsValidation(err), "01:00 same day is before 22:00")
}
