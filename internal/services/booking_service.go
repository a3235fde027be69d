package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/repositories"
	"bookbus/internal/utils"

	"github.com/google/uuid"
)

// BookingStore is what the booking manager needs from storage.
type BookingStore interface {
	BookingReader
	TxRunner
	GetBooking(ctx context.Context, id int64) (models.Booking, error)
	CompleteBefore(ctx context.Context, asOf time.Time) (int64, error)
}

// BookingService commits bookings so that no seat is sold twice for
// overlapping segments, and settles coins in the same transaction.
type BookingService struct {
	Store    BookingStore
	Ledger   LedgerService
	Location *time.Location
	// Retries bounds how often a transaction is restarted after lock
	// contention before ErrConcurrencyConflict is returned.
	Retries      int
	Now          func() time.Time
	NewReference func() string
	RequestID    string
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) reference() string {
	if s.NewReference != nil {
		return s.NewReference()
	}
	return uuid.NewString()
}

// Today is the current civil date in the service timezone.
func (s BookingService) Today() time.Time {
	return utils.CivilDate(s.now(), s.Location)
}

// Book books exactly one seat.
func (s BookingService) Book(ctx context.Context, req models.BookingRequest) (models.Booking, error) {
	if len(req.Seats) != 1 {
		return models.Booking{}, domain.ValidationError{Field: "seats", Msg: "exactly one seat expected"}
	}
	out, err := s.BookSeats(ctx, req)
	if err != nil {
		return models.Booking{}, err
	}
	return out[0], nil
}

// BookSeats books every requested seat for the same segment and date, or none.
func (s BookingService) BookSeats(ctx context.Context, req models.BookingRequest) ([]models.Booking, error) {
	if err := validateSeatRequests(req.Seats); err != nil {
		return nil, err
	}

	bus, err := s.Store.GetBus(ctx, req.BusID)
	if err != nil {
		return nil, err
	}
	route, err := domain.NewRoute(bus.Route)
	if err != nil {
		return nil, domain.InternalError{Msg: "bus route is misconfigured", Err: err}
	}

	date := req.TravelDate
	if date.Before(s.Today()) {
		return nil, domain.Reject(domain.ErrInvalidDate, "%s is in the past", utils.FormatDate(date))
	}
	if !domain.RunsOnDate(bus, date, s.Location) {
		return nil, domain.Reject(domain.ErrInvalidDate, "bus %d does not run on %s", bus.ID, utils.FormatDate(date))
	}

	seg, err := route.SegmentBetween(req.BoardStopID, req.AlightStopID)
	if err != nil {
		return nil, err
	}

	// Lock in ascending seat id so two multi-seat requests cannot deadlock.
	reqs := append([]models.SeatRequest(nil), req.Seats...)
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].SeatID < reqs[j].SeatID })

	seats := make([]models.Seat, len(reqs))
	for i, r := range reqs {
		seat, ok := bus.SeatByID(r.SeatID)
		if !ok {
			return nil, domain.NotFoundError{Resource: fmt.Sprintf("seat %d on bus %d", r.SeatID, bus.ID)}
		}
		seats[i] = seat
	}

	// Fail fast without taking locks; the same test is repeated under the hold.
	for _, seat := range seats {
		taken, err := s.Store.ActiveSegments(ctx, bus.ID, seat.ID, date)
		if err != nil {
			return nil, err
		}
		if c, ok := domain.FirstConflict(seg, taken); ok {
			return nil, domain.Reject(domain.ErrSeatUnavailable, "seat %s is booked for %s", seat.Name, c)
		}
	}

	var out []models.Booking
	err = s.retry(ctx, "book", func() error {
		out = out[:0]
		return s.Store.WithinTx(ctx, func(tx repositories.BookingTx) error {
			// The route may have been replaced since it was read above.
			cur, err := tx.RouteSegment(ctx, bus.ID, req.BoardStopID, req.AlightStopID)
			if err != nil {
				return err
			}
			seg = cur
			for _, seat := range seats {
				if err := tx.LockSeat(ctx, bus.ID, seat.ID); err != nil {
					return err
				}
				taken, err := tx.ActiveSegments(ctx, bus.ID, seat.ID, date)
				if err != nil {
					return err
				}
				if c, ok := domain.FirstConflict(seg, taken); ok {
					return domain.Reject(domain.ErrSeatUnavailable, "seat %s is booked for %s", seat.Name, c)
				}
			}

			now := s.now()
			for i, seat := range seats {
				b := models.Booking{
					Reference:    s.reference(),
					BusID:        bus.ID,
					SeatID:       seat.ID,
					SeatName:     seat.Name,
					CustomerID:   req.CustomerID,
					OperatorID:   bus.OperatorID,
					TravelDate:   date,
					BoardStopID:  req.BoardStopID,
					BoardOrder:   seg.Board,
					AlightStopID: req.AlightStopID,
					AlightOrder:  seg.Alight,
					Fare:         seat.Fare,
					Status:       models.BookingConfirmed,
					Passenger:    reqs[i].Passenger,
					CreatedAt:    now,
				}
				if err := tx.InsertBooking(ctx, &b); err != nil {
					return err
				}
				bookingID := b.ID
				if err := s.Ledger.Transfer(ctx, tx, Transfer{
					From:      req.CustomerID,
					To:        bus.OperatorID,
					Amount:    seat.Fare,
					Kind:      models.LedgerBooking,
					BookingID: &bookingID,
					Note:      fmt.Sprintf("%s seat %s %s", b.Reference, seat.Name, utils.FormatDate(date)),
				}); err != nil {
					return err
				}
				out = append(out, b)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	utils.LogEvent(s.RequestID, "booking", "book",
		fmt.Sprintf("bus_id=%d date=%s seats=%d segment=%s customer_id=%d", bus.ID, utils.FormatDate(date), len(out), seg, req.CustomerID))
	return out, nil
}

func validateSeatRequests(reqs []models.SeatRequest) error {
	if len(reqs) == 0 {
		return domain.ValidationError{Field: "seats", Msg: "at least one seat is required"}
	}
	seen := map[int64]bool{}
	for i, r := range reqs {
		if r.SeatID <= 0 {
			return domain.ValidationError{Field: fmt.Sprintf("seats[%d].seatId", i), Msg: "is required"}
		}
		if seen[r.SeatID] {
			return domain.ValidationError{Field: "seats", Msg: fmt.Sprintf("seat %d requested twice", r.SeatID)}
		}
		seen[r.SeatID] = true
		if strings.TrimSpace(r.Passenger.Name) == "" {
			return domain.ValidationError{Field: fmt.Sprintf("seats[%d].passenger.name", i), Msg: "is required"}
		}
	}
	return nil
}

// Cancel cancels a Confirmed booking on behalf of its customer and refunds the
// fare that was charged for it.
func (s BookingService) Cancel(ctx context.Context, bookingID, actorID int64) (models.Booking, error) {
	var out models.Booking
	err := s.retry(ctx, "cancel", func() error {
		return s.Store.WithinTx(ctx, func(tx repositories.BookingTx) error {
			b, err := tx.LockBooking(ctx, bookingID)
			if err != nil {
				return err
			}
			if b.CustomerID != actorID {
				return domain.Reject(domain.ErrForbidden, "booking %d belongs to another customer", bookingID)
			}
			if b.Status != models.BookingConfirmed {
				return domain.Reject(domain.ErrNotCancellable, "booking %d is %s", bookingID, b.Status)
			}

			now := s.now()
			if err := tx.SetBookingStatus(ctx, b.ID, models.BookingCancelled, &now); err != nil {
				return err
			}
			bid := b.ID
			if err := s.Ledger.Transfer(ctx, tx, Transfer{
				From:      b.OperatorID,
				To:        b.CustomerID,
				Amount:    b.Fare,
				Kind:      models.LedgerCancellation,
				BookingID: &bid,
				Note:      "refund " + b.Reference,
				Overdraft: true,
			}); err != nil {
				return err
			}
			b.Status = models.BookingCancelled
			b.CancelledAt = &now
			out = b
			return nil
		})
	})
	if err != nil {
		return models.Booking{}, err
	}

	utils.LogEvent(s.RequestID, "booking", "cancel", fmt.Sprintf("booking_id=%d refund=%d", out.ID, out.Fare))
	return out, nil
}

// Get returns a booking visible to the actor: its customer, the bus operator or an admin.
func (s BookingService) Get(ctx context.Context, bookingID int64, actor domain.RequestContext) (models.Booking, error) {
	b, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if actor.Role != domain.RoleAdmin && actor.UserID != b.CustomerID && actor.UserID != b.OperatorID {
		return models.Booking{}, domain.Reject(domain.ErrForbidden, "booking %d", bookingID)
	}
	return b, nil
}

// AdvanceCompletions marks every Pending/Confirmed booking that travelled before
// asOf as Completed. It has no ledger effect and is safe to repeat.
func (s BookingService) AdvanceCompletions(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.Store.CompleteBefore(ctx, asOf)
	if err != nil {
		return 0, err
	}
	utils.LogEvent(s.RequestID, "booking", "advance_completions", fmt.Sprintf("as_of=%s completed=%d", utils.FormatDate(asOf), n))
	return n, nil
}

// retry reruns fn while it fails on lock contention.
func (s BookingService) retry(ctx context.Context, action string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if err = fn(); err == nil || !intdb.IsRetryable(err) {
			return err
		}
		utils.LogEvent(s.RequestID, "booking", action, fmt.Sprintf("contention on attempt %d: %v", attempt+1, err))
		if attempt == s.Retries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
}
