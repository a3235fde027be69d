package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/repositories"
)

// fakeStore is an in-memory BookingStore. Seat and booking holds are real
// mutexes; writes are applied immediately and undone on rollback.
type fakeStore struct {
	mu       sync.Mutex
	buses    map[int64]models.Bus
	bookings map[int64]models.Booking
	coins    map[int64]int64
	ledger   []models.LedgerEntry
	nextID   int64
	holds    map[string]*sync.Mutex

	// failLocks makes the next n LockSeat calls time out.
	failLocks atomic.Int32
	// beforeTx runs at the start of every transaction.
	beforeTx func()
}

func newFakeStore(buses ...models.Bus) *fakeStore {
	s := &fakeStore{
		buses:    map[int64]models.Bus{},
		bookings: map[int64]models.Booking{},
		coins:    map[int64]int64{},
		holds:    map[string]*sync.Mutex{},
	}
	for _, b := range buses {
		s.buses[b.ID] = b
	}
	return s
}

func (s *fakeStore) balance(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coins[id]
}

func (s *fakeStore) ledgerLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

func (s *fakeStore) GetBus(_ context.Context, id int64) (models.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buses[id]
	if !ok {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	return b, nil
}

func (s *fakeStore) activeLocked(busID, seatID int64, date time.Time) []domain.Segment {
	out := []domain.Segment{}
	for _, b := range s.bookings {
		if b.BusID == busID && b.SeatID == seatID && b.TravelDate.Equal(date) && b.Status.Active() {
			out = append(out, domain.Segment{Board: b.BoardOrder, Alight: b.AlightOrder})
		}
	}
	return out
}

func (s *fakeStore) ActiveSegments(_ context.Context, busID, seatID int64, date time.Time) ([]domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(busID, seatID, date), nil
}

func (s *fakeStore) BookedSegments(_ context.Context, busID int64, date time.Time) (map[int64][]domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64][]domain.Segment{}
	for _, b := range s.bookings {
		if b.BusID == busID && b.TravelDate.Equal(date) && b.Status.Active() {
			out[b.SeatID] = append(out[b.SeatID], domain.Segment{Board: b.BoardOrder, Alight: b.AlightOrder})
		}
	}
	return out, nil
}

func (s *fakeStore) GetBooking(_ context.Context, id int64) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func (s *fakeStore) CompleteBefore(_ context.Context, asOf time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, b := range s.bookings {
		if b.TravelDate.Before(asOf) && (b.Status == models.BookingPending || b.Status == models.BookingConfirmed) {
			b.Status = models.BookingCompleted
			s.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(repositories.BookingTx) error) error {
	if s.beforeTx != nil {
		s.beforeTx()
	}
	tx := &fakeTx{s: s, held: map[string]bool{}}
	err := fn(tx)
	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
	}
	for i := len(tx.order) - 1; i >= 0; i-- {
		tx.hold(tx.order[i]).Unlock()
	}
	return err
}

type fakeTx struct {
	s     *fakeStore
	held  map[string]bool
	order []string
	undo  []func()
}

func (t *fakeTx) hold(key string) *sync.Mutex {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	m, ok := t.s.holds[key]
	if !ok {
		m = &sync.Mutex{}
		t.s.holds[key] = m
	}
	return m
}

func (t *fakeTx) acquire(key string) {
	if t.held[key] {
		return
	}
	t.hold(key).Lock()
	t.held[key] = true
	t.order = append(t.order, key)
}

func (t *fakeTx) LockSeat(_ context.Context, busID, seatID int64) error {
	if t.s.failLocks.Load() > 0 && t.s.failLocks.Add(-1) >= 0 {
		return intdb.ErrLockTimeout
	}
	t.acquire(fmt.Sprintf("seat:%d:%d", busID, seatID))
	return nil
}

func (t *fakeTx) RouteSegment(ctx context.Context, busID, boardStopID, alightStopID int64) (domain.Segment, error) {
	b, err := t.s.GetBus(ctx, busID)
	if err != nil {
		return domain.Segment{}, err
	}
	route, err := domain.NewRoute(b.Route)
	if err != nil {
		return domain.Segment{}, err
	}
	return route.SegmentBetween(boardStopID, alightStopID)
}

func (t *fakeTx) ActiveSegments(ctx context.Context, busID, seatID int64, date time.Time) ([]domain.Segment, error) {
	return t.s.ActiveSegments(ctx, busID, seatID, date)
}

func (t *fakeTx) LockBooking(ctx context.Context, id int64) (models.Booking, error) {
	t.acquire(fmt.Sprintf("booking:%d", id))
	return t.s.GetBooking(ctx, id)
}

func (t *fakeTx) InsertBooking(_ context.Context, b *models.Booking) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, seg := range t.s.activeLocked(b.BusID, b.SeatID, b.TravelDate) {
		if seg.Board == b.BoardOrder || seg.Alight == b.AlightOrder {
			return domain.Reject(domain.ErrSeatUnavailable, "duplicate active key")
		}
	}
	t.s.nextID++
	b.ID = t.s.nextID
	t.s.bookings[b.ID] = *b
	id := b.ID
	t.undo = append(t.undo, func() { delete(t.s.bookings, id) })
	return nil
}

func (t *fakeTx) SetBookingStatus(_ context.Context, id int64, status models.BookingStatus, at *time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	old, ok := t.s.bookings[id]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b := old
	b.Status = status
	if at != nil {
		b.CancelledAt = at
	}
	t.s.bookings[id] = b
	t.undo = append(t.undo, func() { t.s.bookings[id] = old })
	return nil
}

func (t *fakeTx) Debit(_ context.Context, userID, amount int64, overdraft bool) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	bal, ok := t.s.coins[userID]
	if !ok {
		return domain.NotFoundError{Resource: "user"}
	}
	if !overdraft && bal < amount {
		return domain.Reject(domain.ErrInsufficientFunds, "user %d", userID)
	}
	t.s.coins[userID] = bal - amount
	t.undo = append(t.undo, func() { t.s.coins[userID] += amount })
	return nil
}

func (t *fakeTx) Credit(_ context.Context, userID, amount int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.coins[userID]; !ok {
		return domain.NotFoundError{Resource: "user"}
	}
	t.s.coins[userID] += amount
	t.undo = append(t.undo, func() { t.s.coins[userID] -= amount })
	return nil
}

func (t *fakeTx) AppendLedger(_ context.Context, e *models.LedgerEntry) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.nextID++
	e.ID = t.s.nextID
	t.s.ledger = append(t.s.ledger, *e)
	id := e.ID
	t.undo = append(t.undo, func() {
		for i, le := range t.s.ledger {
			if le.ID == id {
				t.s.ledger = append(t.s.ledger[:i], t.s.ledger[i+1:]...)
				return
			}
		}
	})
	return nil
}
