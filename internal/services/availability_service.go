package services

import (
	"context"
	"time"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/utils"
)

// BookingReader is the read side of the booking store.
type BookingReader interface {
	GetBus(ctx context.Context, id int64) (models.Bus, error)
	ActiveSegments(ctx context.Context, busID, seatID int64, date time.Time) ([]domain.Segment, error)
	BookedSegments(ctx context.Context, busID int64, date time.Time) (map[int64][]domain.Segment, error)
}

// AvailabilityService answers seat questions for one bus and travel date.
type AvailabilityService struct {
	Store    BookingReader
	Location *time.Location
}

// SeatFree reports whether seat is free for seg on date. A conflicting segment is
// returned when it is not.
func (s AvailabilityService) SeatFree(ctx context.Context, busID, seatID int64, date time.Time, seg domain.Segment) (bool, domain.Segment, error) {
	if err := seg.Validate(); err != nil {
		return false, domain.Segment{}, err
	}
	taken, err := s.Store.ActiveSegments(ctx, busID, seatID, date)
	if err != nil {
		return false, domain.Segment{}, err
	}
	if c, ok := domain.FirstConflict(seg, taken); ok {
		return false, c, nil
	}
	return true, domain.Segment{}, nil
}

// SeatMap is the whole-route view: a seat is Booked when any active booking
// holds it on date, whatever the segment.
func (s AvailabilityService) SeatMap(ctx context.Context, busID int64, date time.Time) ([]models.SeatStatus, error) {
	return s.seatMap(ctx, busID, date, nil)
}

// SegmentSeatMap marks a seat Booked only when an active booking overlaps the
// boardStop→alightStop segment, so relay seats show as Available.
func (s AvailabilityService) SegmentSeatMap(ctx context.Context, busID int64, date time.Time, boardStopID, alightStopID int64) ([]models.SeatStatus, error) {
	bus, err := s.Store.GetBus(ctx, busID)
	if err != nil {
		return nil, err
	}
	route, err := domain.NewRoute(bus.Route)
	if err != nil {
		return nil, domain.InternalError{Msg: "bus route is misconfigured", Err: err}
	}
	seg, err := route.SegmentBetween(boardStopID, alightStopID)
	if err != nil {
		return nil, err
	}
	return s.seatMapFor(ctx, bus, date, &seg)
}

func (s AvailabilityService) seatMap(ctx context.Context, busID int64, date time.Time, seg *domain.Segment) ([]models.SeatStatus, error) {
	bus, err := s.Store.GetBus(ctx, busID)
	if err != nil {
		return nil, err
	}
	return s.seatMapFor(ctx, bus, date, seg)
}

func (s AvailabilityService) seatMapFor(ctx context.Context, bus models.Bus, date time.Time, seg *domain.Segment) ([]models.SeatStatus, error) {
	if !domain.RunsOnDate(bus, date, s.Location) {
		return nil, domain.Reject(domain.ErrInvalidDate, "bus %d does not run on %s", bus.ID, utils.FormatDate(date))
	}
	booked, err := s.Store.BookedSegments(ctx, bus.ID, date)
	if err != nil {
		return nil, err
	}

	out := make([]models.SeatStatus, 0, len(bus.Seats))
	for _, seat := range bus.Seats {
		state := models.SeatAvailable
		taken := booked[seat.ID]
		if seg == nil && len(taken) > 0 {
			state = models.SeatBooked
		}
		if seg != nil {
			if _, ok := domain.FirstConflict(*seg, taken); ok {
				state = models.SeatBooked
			}
		}
		out = append(out, models.SeatStatus{Seat: seat, State: state})
	}
	return out, nil
}
