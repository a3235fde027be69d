package domain

import (
	"sort"
	"time"

	"bookbus/internal/domain/models"
	"bookbus/internal/utils"
)

// Route is the ordered stop list of one bus.
type Route struct {
	stops []models.RouteStop
}

// NewRoute checks stored route stops against the 1..N order invariant. A gap or
// duplicate is reported as ErrRouteCorrupt and is never repaired here.
func NewRoute(stops []models.RouteStop) (Route, error) {
	sorted := make([]models.RouteStop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	if len(sorted) < 2 {
		return Route{}, Reject(ErrRouteCorrupt, "route has %d stops", len(sorted))
	}
	for i, rs := range sorted {
		if rs.Order != i+1 {
			return Route{}, Reject(ErrRouteCorrupt, "bus %d: expected order %d, found %d", rs.BusID, i+1, rs.Order)
		}
	}
	return Route{stops: sorted}, nil
}

// StopsInOrder returns the route stops from journey start to journey end.
func (r Route) StopsInOrder() []models.RouteStop {
	out := make([]models.RouteStop, len(r.stops))
	copy(out, r.stops)
	return out
}

func (r Route) Len() int { return len(r.stops) }

func (r Route) Start() models.RouteStop { return r.stops[0] }

func (r Route) End() models.RouteStop { return r.stops[len(r.stops)-1] }

// OrderOf resolves the route position of a stop.
func (r Route) OrderOf(stopID int64) (int, error) {
	for _, rs := range r.stops {
		if rs.Stop.ID == stopID {
			return rs.Order, nil
		}
	}
	return 0, Reject(ErrStopNotFound, "stop %d is not on this route", stopID)
}

// SegmentBetween converts a boarding and destination stop into a segment.
func (r Route) SegmentBetween(boardStopID, alightStopID int64) (Segment, error) {
	board, err := r.OrderOf(boardStopID)
	if err != nil {
		return Segment{}, err
	}
	alight, err := r.OrderOf(alightStopID)
	if err != nil {
		return Segment{}, err
	}
	return NewSegment(board, alight)
}

// Serves is the search feasibility test: both stops on the route, in travel order.
func (r Route) Serves(fromStopID, toStopID int64) bool {
	_, err := r.SegmentBetween(fromStopID, toStopID)
	return err == nil
}

func (r Route) Contains(stopID int64) bool {
	_, err := r.OrderOf(stopID)
	return err == nil
}

// Duration is the scheduled travel time between two route orders.
func (r Route) Duration(fromOrder, toOrder int) (time.Duration, error) {
	if fromOrder < 1 || toOrder > len(r.stops) {
		return 0, Reject(ErrInvalidSegment, "orders %d..%d outside route", fromOrder, toOrder)
	}
	from, err := arrivalOffset(r.stops[fromOrder-1])
	if err != nil {
		return 0, err
	}
	to, err := arrivalOffset(r.stops[toOrder-1])
	if err != nil {
		return 0, err
	}
	if to < from {
		return 0, nil
	}
	return to - from, nil
}

// LegDurations returns the travel time into each stop from the previous one.
// The first entry is always zero.
func (r Route) LegDurations() []time.Duration {
	out := make([]time.Duration, len(r.stops))
	for i := 1; i < len(r.stops); i++ {
		d, err := r.Duration(i, i+1)
		if err == nil {
			out[i] = d
		}
	}
	return out
}

func arrivalOffset(rs models.RouteStop) (time.Duration, error) {
	clock, err := utils.ParseClock(rs.ArrivalTime)
	if err != nil {
		return 0, ValidationError{Field: "arrivalTime", Msg: err.Error()}
	}
	if rs.NextDay {
		clock += 24 * time.Hour
	}
	return clock, nil
}

// PlanRoute turns an operator's ordered stop list into route stops numbered
// 1..N. The whole list replaces any previous route.
func PlanRoute(busID int64, in []models.RouteStopInput) ([]models.RouteStop, error) {
	if len(in) < 2 {
		return nil, ValidationError{Field: "route", Msg: "at least 2 stops are required"}
	}
	seen := make(map[int64]bool, len(in))
	out := make([]models.RouteStop, 0, len(in))
	var prev time.Duration
	for i, s := range in {
		if s.StopID <= 0 {
			return nil, Reject(ErrStopNotFound, "route entry %d has no stop", i+1)
		}
		if seen[s.StopID] {
			return nil, ValidationError{Field: "route", Msg: "a stop may appear only once on a route"}
		}
		seen[s.StopID] = true

		rs := models.RouteStop{
			BusID:       busID,
			Stop:        models.Stop{ID: s.StopID},
			Order:       i + 1,
			ArrivalTime: s.ArrivalTime,
			NextDay:     s.NextDay,
		}
		off, err := arrivalOffset(rs)
		if err != nil {
			return nil, err
		}
		if i > 0 && off < prev {
			return nil, ValidationError{Field: "route", Msg: "arrival times must not go backwards; set nextDay after midnight"}
		}
		prev = off
		out = append(out, rs)
	}
	return out, nil
}
