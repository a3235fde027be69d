package services

import (
	"context"
	"fmt"
	"time"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/repositories"
	"bookbus/internal/utils"
)

// maxSeatsPerClass keeps generated seat rosters to a sane size.
const maxSeatsPerClass = 100

// CatalogService manages stops and buses and runs route search.
type CatalogService struct {
	Stops     repositories.StopRepo
	Buses     repositories.BusRepo
	Location  *time.Location
	Now       func() time.Time
	RequestID string
}

func (s CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Leg is the travel time between two consecutive route stops.
type Leg struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Minutes int    `json:"minutes"`
}

// BusView is a bus as shown to API clients.
type BusView struct {
	models.Bus
	OperatingDays []string `json:"operatingDays"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	Legs          []Leg    `json:"legs,omitempty"`
	TotalMinutes  int      `json:"totalMinutes"`
}

// SearchResult is one feasible bus for a search.
type SearchResult struct {
	BusView
	BoardStop  *models.RouteStop `json:"boardStop,omitempty"`
	AlightStop *models.RouteStop `json:"alightStop,omitempty"`
	// JourneyMinutes covers only the searched segment.
	JourneyMinutes int      `json:"journeyMinutes,omitempty"`
	NextDates      []string `json:"nextDates,omitempty"`
}

func newBusView(b models.Bus, route domain.Route) BusView {
	v := BusView{Bus: b, OperatingDays: b.Days()}
	if route.Len() > 0 {
		v.Origin, v.Destination = route.Start().Stop.Name, route.End().Stop.Name
	}
	stops := route.StopsInOrder()
	for i, d := range route.LegDurations() {
		if i == 0 {
			continue
		}
		v.Legs = append(v.Legs, Leg{From: stops[i-1].Stop.Name, To: stops[i].Stop.Name, Minutes: int(d.Minutes())})
	}
	if total, err := route.Duration(1, route.Len()); err == nil {
		v.TotalMinutes = int(total.Minutes())
	}
	return v
}

func (s CatalogService) CreateStop(ctx context.Context, in models.Stop) (models.Stop, error) {
	in.Name = utils.NormalizeSpace(in.Name)
	if in.Name == "" {
		return models.Stop{}, domain.ValidationError{Field: "name", Msg: "is required"}
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return models.Stop{}, domain.ValidationError{Field: "latitude", Msg: "latitude and longitude go together"}
	}
	if in.HasLocation() && (*in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180) {
		return models.Stop{}, domain.ValidationError{Field: "latitude", Msg: "coordinates out of range"}
	}
	out, err := s.Stops.Create(ctx, in)
	if err != nil {
		return models.Stop{}, err
	}
	utils.LogEvent(s.RequestID, "catalog", "create_stop", fmt.Sprintf("stop_id=%d", out.ID))
	return out, nil
}

func (s CatalogService) ListStops(ctx context.Context, q string) ([]models.Stop, error) {
	return s.Stops.List(ctx, q)
}

// buildBus validates operator input into a bus with a planned route.
func (s CatalogService) buildBus(ctx context.Context, in models.BusInput) (models.Bus, error) {
	b := models.Bus{Name: utils.NormalizeSpace(in.Name), StartTime: in.StartTime.UTC(), EndTime: in.EndTime.UTC()}
	if b.Name == "" {
		return models.Bus{}, domain.ValidationError{Field: "name", Msg: "is required"}
	}
	if b.StartTime.IsZero() || b.EndTime.IsZero() || b.EndTime.Before(b.StartTime) {
		return models.Bus{}, domain.ValidationError{Field: "endTime", Msg: "must not be before startTime"}
	}
	days, err := models.ParseWeekdays(in.OperatingDays)
	if err != nil {
		return models.Bus{}, domain.ValidationError{Field: "operatingDays", Msg: err.Error()}
	}
	b.OperatingDays = days

	if in.Route != nil {
		route, err := domain.PlanRoute(0, in.Route)
		if err != nil {
			return models.Bus{}, err
		}
		for i := range route {
			stop, err := s.Stops.Get(ctx, route[i].Stop.ID)
			if err != nil {
				return models.Bus{}, err
			}
			route[i].Stop = stop
		}
		b.Route = route
	}
	return b, nil
}

// seatRoster names seats per class in class order: G1..Gn, S1..Sn, L1..Ln.
func seatRoster(specs []models.SeatClassSpec) ([]models.Seat, error) {
	byClass := map[models.SeatClass]models.SeatClassSpec{}
	for _, sp := range specs {
		if !sp.Class.Valid() {
			return nil, domain.ValidationError{Field: "seatClasses", Msg: fmt.Sprintf("unknown class %q", sp.Class)}
		}
		if _, dup := byClass[sp.Class]; dup {
			return nil, domain.ValidationError{Field: "seatClasses", Msg: fmt.Sprintf("class %s listed twice", sp.Class)}
		}
		if sp.Count < 0 || sp.Count > maxSeatsPerClass {
			return nil, domain.ValidationError{Field: "seatClasses", Msg: fmt.Sprintf("%s count must be 0..%d", sp.Class, maxSeatsPerClass)}
		}
		if sp.Count > 0 && sp.Fare <= 0 {
			return nil, domain.ValidationError{Field: "seatClasses", Msg: fmt.Sprintf("%s fare must be positive", sp.Class)}
		}
		byClass[sp.Class] = sp
	}

	var seats []models.Seat
	for _, class := range models.SeatClasses {
		sp := byClass[class]
		for i := 1; i <= sp.Count; i++ {
			seats = append(seats, models.Seat{Name: fmt.Sprintf("%s%d", class.Prefix(), i), Class: class, Fare: sp.Fare})
		}
	}
	if len(seats) == 0 {
		return nil, domain.ValidationError{Field: "seatClasses", Msg: "a bus needs at least one seat"}
	}
	return seats, nil
}

func (s CatalogService) CreateBus(ctx context.Context, operatorID int64, in models.BusInput) (BusView, error) {
	if in.Route == nil {
		return BusView{}, domain.ValidationError{Field: "route", Msg: "is required"}
	}
	b, err := s.buildBus(ctx, in)
	if err != nil {
		return BusView{}, err
	}
	if b.Seats, err = seatRoster(in.SeatClasses); err != nil {
		return BusView{}, err
	}
	b.OperatorID = operatorID

	id, err := s.Buses.Create(ctx, b)
	if err != nil {
		return BusView{}, err
	}
	utils.LogEvent(s.RequestID, "catalog", "create_bus", fmt.Sprintf("bus_id=%d operator_id=%d seats=%d", id, operatorID, len(b.Seats)))
	return s.GetBus(ctx, id)
}

// UpdateBus changes schedule fields and, when a route is given, replaces the
// whole route. Seats are fixed at creation.
func (s CatalogService) UpdateBus(ctx context.Context, operatorID, busID int64, in models.BusInput) (BusView, error) {
	if _, err := s.ownedBus(ctx, operatorID, busID); err != nil {
		return BusView{}, err
	}
	b, err := s.buildBus(ctx, in)
	if err != nil {
		return BusView{}, err
	}
	b.ID = busID
	if err := s.Buses.Update(ctx, b, b.Route, utils.CivilDate(s.now(), s.Location)); err != nil {
		return BusView{}, err
	}
	utils.LogEvent(s.RequestID, "catalog", "update_bus", fmt.Sprintf("bus_id=%d route_replaced=%t", busID, b.Route != nil))
	return s.GetBus(ctx, busID)
}

func (s CatalogService) DeleteBus(ctx context.Context, operatorID, busID int64) error {
	if _, err := s.ownedBus(ctx, operatorID, busID); err != nil {
		return err
	}
	if err := s.Buses.Delete(ctx, busID); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "catalog", "delete_bus", fmt.Sprintf("bus_id=%d", busID))
	return nil
}

func (s CatalogService) ownedBus(ctx context.Context, operatorID, busID int64) (models.Bus, error) {
	b, err := s.Buses.Get(ctx, busID)
	if err != nil {
		return models.Bus{}, err
	}
	if b.OperatorID != operatorID {
		return models.Bus{}, domain.Reject(domain.ErrForbidden, "bus %d belongs to another operator", busID)
	}
	return b, nil
}

func (s CatalogService) GetBus(ctx context.Context, busID int64) (BusView, error) {
	b, err := s.Buses.Get(ctx, busID)
	if err != nil {
		return BusView{}, err
	}
	route, err := domain.NewRoute(b.Route)
	if err != nil {
		return BusView{}, domain.InternalError{Msg: "bus route is misconfigured", Err: err}
	}
	return newBusView(b, route), nil
}

func (s CatalogService) ListOperatorBuses(ctx context.Context, operatorID int64) ([]BusView, error) {
	buses, err := s.Buses.ListByOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	out := make([]BusView, 0, len(buses))
	for _, b := range buses {
		route, err := domain.NewRoute(b.Route)
		if err != nil {
			utils.LogError(s.RequestID, "catalog", "list_buses", fmt.Errorf("bus %d: %w", b.ID, err))
			continue
		}
		out = append(out, newBusView(b, route))
	}
	return out, nil
}

// Search lists buses serving fromStop before toStop. Either stop may be zero, in
// which case the bus only has to call at the other one. With a date, only buses
// running that day are kept; without one, the next few running dates are listed.
func (s CatalogService) Search(ctx context.Context, fromStopID, toStopID int64, date *time.Time) ([]SearchResult, error) {
	if date != nil && date.Before(utils.CivilDate(s.now(), s.Location)) {
		return nil, domain.Reject(domain.ErrInvalidDate, "%s is in the past", utils.FormatDate(*date))
	}
	buses, err := s.Buses.Candidates(ctx, fromStopID, toStopID)
	if err != nil {
		return nil, err
	}

	out := []SearchResult{}
	for _, b := range buses {
		route, err := domain.NewRoute(b.Route)
		if err != nil {
			// left for an operator to fix; never auto-corrected here
			utils.LogError(s.RequestID, "catalog", "search", fmt.Errorf("bus %d: %w", b.ID, err))
			continue
		}
		res, ok := s.match(b, route, fromStopID, toStopID, date)
		if ok {
			out = append(out, res)
		}
	}
	return out, nil
}

func (s CatalogService) match(b models.Bus, route domain.Route, fromStopID, toStopID int64, date *time.Time) (SearchResult, bool) {
	res := SearchResult{BusView: newBusView(b, route)}
	res.Seats = nil

	switch {
	case fromStopID > 0 && toStopID > 0:
		seg, err := route.SegmentBetween(fromStopID, toStopID)
		if err != nil {
			return SearchResult{}, false
		}
		stops := route.StopsInOrder()
		res.BoardStop, res.AlightStop = &stops[seg.Board-1], &stops[seg.Alight-1]
		if d, err := route.Duration(seg.Board, seg.Alight); err == nil {
			res.JourneyMinutes = int(d.Minutes())
		}
	case fromStopID > 0 && !route.Contains(fromStopID):
		return SearchResult{}, false
	case toStopID > 0 && !route.Contains(toStopID):
		return SearchResult{}, false
	}

	if date != nil {
		if !domain.RunsOnDate(b, *date, s.Location) {
			return SearchResult{}, false
		}
		return res, true
	}
	for _, d := range domain.UpcomingDates(b, utils.CivilDate(s.now(), s.Location), 5, s.Location) {
		res.NextDates = append(res.NextDates, utils.FormatDate(d))
	}
	if len(res.NextDates) == 0 {
		return SearchResult{}, false
	}
	return res, true
}
