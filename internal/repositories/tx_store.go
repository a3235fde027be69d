package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"time"

	intconfig "bookbus/internal/config"
	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"

	"github.com/sirupsen/logrus"
)

// LedgerTx is the balance side of a store transaction.
type LedgerTx interface {
	// Debit takes amount from userID. Without overdraft it fails with
	// domain.ErrInsufficientFunds when the balance does not cover it.
	Debit(ctx context.Context, userID, amount int64, overdraft bool) error
	Credit(ctx context.Context, userID, amount int64) error
	AppendLedger(ctx context.Context, e *models.LedgerEntry) error
}

// BookingTx is everything a booking or cancellation does inside one transaction.
type BookingTx interface {
	LedgerTx
	// LockSeat holds the (bus, seat) lock until the transaction ends.
	LockSeat(ctx context.Context, busID, seatID int64) error
	// RouteSegment resolves two stops against the route as committed now and
	// keeps that route from being replaced until the transaction ends.
	RouteSegment(ctx context.Context, busID, boardStopID, alightStopID int64) (domain.Segment, error)
	ActiveSegments(ctx context.Context, busID, seatID int64, date time.Time) ([]domain.Segment, error)
	// LockBooking reads a booking and holds its row lock until the transaction ends.
	LockBooking(ctx context.Context, id int64) (models.Booking, error)
	InsertBooking(ctx context.Context, b *models.Booking) error
	SetBookingStatus(ctx context.Context, id int64, status models.BookingStatus, at *time.Time) error
}

// Store is the MySQL-backed booking store.
type Store struct {
	DB          *sql.DB
	LockTimeout time.Duration
}

func (s Store) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s Store) GetBus(ctx context.Context, id int64) (models.Bus, error) {
	return BusRepo{DB: s.DB}.Get(ctx, id)
}

func (s Store) ActiveSegments(ctx context.Context, busID, seatID int64, date time.Time) ([]domain.Segment, error) {
	return BookingRepo{DB: s.DB}.ActiveSegments(ctx, nil, busID, seatID, date)
}

func (s Store) BookedSegments(ctx context.Context, busID int64, date time.Time) (map[int64][]domain.Segment, error) {
	return BookingRepo{DB: s.DB}.BookedSegments(ctx, busID, date)
}

func (s Store) GetBooking(ctx context.Context, id int64) (models.Booking, error) {
	return BookingRepo{DB: s.DB}.Get(ctx, id)
}

func (s Store) CompleteBefore(ctx context.Context, asOf time.Time) (int64, error) {
	return BookingRepo{DB: s.DB}.CompleteBefore(ctx, asOf)
}

// WithinTx runs fn in a READ COMMITTED transaction on a dedicated connection.
// Named locks are session scoped, so they are released on that same connection
// only after commit or rollback; other requests never observe the seat free
// before the new booking is visible.
func (s Store) WithinTx(ctx context.Context, fn func(BookingTx) error) error {
	conn, err := s.db().Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	t := &mysqlTx{tx: tx, timeout: s.LockTimeout, held: map[string]bool{}}
	defer func() {
		_ = tx.Rollback()
		t.release(context.WithoutCancel(ctx), conn)
	}()

	if err := fn(t); err != nil {
		return err
	}
	return tx.Commit()
}

type mysqlTx struct {
	tx      *sql.Tx
	timeout time.Duration
	held    map[string]bool
	order   []string
}

func seatLockName(busID, seatID int64) string {
	return fmt.Sprintf("bookbus:seat:%d:%d", busID, seatID)
}

func (t *mysqlTx) LockSeat(ctx context.Context, busID, seatID int64) error {
	key := seatLockName(busID, seatID)
	if t.held[key] {
		return nil
	}
	secs := int(math.Ceil(t.timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	var got sql.NullInt64
	if err := t.tx.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, key, secs).Scan(&got); err != nil {
		return err
	}
	if !got.Valid || got.Int64 != 1 {
		return fmt.Errorf("%s: %w", key, intdb.ErrLockTimeout)
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

// release frees named locks once the transaction is over. A connection whose
// locks could not be released is discarded rather than returned to the pool.
func (t *mysqlTx) release(ctx context.Context, conn *sql.Conn) {
	for i := len(t.order) - 1; i >= 0; i-- {
		key := t.order[i]
		if _, err := conn.ExecContext(ctx, `SELECT RELEASE_LOCK(?)`, key); err != nil {
			logrus.WithError(err).WithField("lock", key).Warn("release named lock failed, dropping connection")
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			return
		}
	}
}

func (t *mysqlTx) RouteSegment(ctx context.Context, busID, boardStopID, alightStopID int64) (domain.Segment, error) {
	return BusRepo{}.segment(ctx, t.tx, busID, boardStopID, alightStopID)
}

func (t *mysqlTx) ActiveSegments(ctx context.Context, busID, seatID int64, date time.Time) ([]domain.Segment, error) {
	return BookingRepo{}.ActiveSegments(ctx, t.tx, busID, seatID, date)
}

func (t *mysqlTx) LockBooking(ctx context.Context, id int64) (models.Booking, error) {
	return BookingRepo{}.lockForUpdate(ctx, t.tx, id)
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	return BookingRepo{}.insert(ctx, t.tx, b)
}

func (t *mysqlTx) SetBookingStatus(ctx context.Context, id int64, status models.BookingStatus, at *time.Time) error {
	return BookingRepo{}.setStatus(ctx, t.tx, id, status, at)
}

func (t *mysqlTx) Debit(ctx context.Context, userID, amount int64, overdraft bool) error {
	return UserRepo{}.debit(ctx, t.tx, userID, amount, overdraft)
}

func (t *mysqlTx) Credit(ctx context.Context, userID, amount int64) error {
	return UserRepo{}.credit(ctx, t.tx, userID, amount)
}

func (t *mysqlTx) AppendLedger(ctx context.Context, e *models.LedgerEntry) error {
	return LedgerRepo{}.append(ctx, t.tx, e)
}
