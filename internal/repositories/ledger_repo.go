package repositories

import (
	"context"
	"database/sql"

	intconfig "bookbus/internal/config"
	intdb "bookbus/internal/db"
	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
)

type LedgerRepo struct {
	DB *sql.DB
}

func (r LedgerRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r LedgerRepo) append(ctx context.Context, q intdb.Querier, e *models.LedgerEntry) error {
	var counterpart, booking any
	if e.CounterpartID != nil {
		counterpart = *e.CounterpartID
	}
	if e.BookingID != nil {
		booking = *e.BookingID
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries (actor_id, counterpart_id, amount, kind, booking_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ActorID, counterpart, e.Amount, string(e.Kind), booking, intdb.NullIfEmpty(e.Note), e.CreatedAt)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

// History lists an actor's entries, newest first.
func (r LedgerRepo) History(ctx context.Context, actorID int64, page domain.Pagination) ([]models.LedgerEntry, error) {
	page = page.Normalize()
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, actor_id, counterpart_id, amount, kind, booking_id, COALESCE(note, ''), created_at
		FROM ledger_entries
		WHERE actor_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?`, actorID, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LedgerEntry{}
	for rows.Next() {
		var (
			e                    models.LedgerEntry
			kind                 string
			counterpart, booking sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &counterpart, &e.Amount, &kind, &booking, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = models.LedgerKind(kind)
		if counterpart.Valid {
			e.CounterpartID = &counterpart.Int64
		}
		if booking.Valid {
			e.BookingID = &booking.Int64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sum is the balance implied by an actor's ledger entries.
func (r LedgerRepo) Sum(ctx context.Context, actorID int64) (int64, error) {
	var sum int64
	err := r.db().QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE actor_id = ?`, actorID).Scan(&sum)
	return sum, err
}
