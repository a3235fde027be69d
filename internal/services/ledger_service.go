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

// MaxTopUp caps a single wallet top-up.
const MaxTopUp int64 = 1_000_000

// TxRunner opens store transactions.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(repositories.BookingTx) error) error
}

// Transfer moves Amount coins from one user to another.
type Transfer struct {
	From      int64
	To        int64
	Amount    int64
	Kind      models.LedgerKind
	BookingID *int64
	Note      string
	// Overdraft lets From go negative. Refunds use it so an operator who has
	// already spent the fare cannot block a cancellation.
	Overdraft bool
}

// Reconciliation compares the stored balance with the ledger sum.
type Reconciliation struct {
	UserID int64 `json:"userId"`
	Stored int64 `json:"stored"`
	Ledger int64 `json:"ledger"`
	Drift  int64 `json:"drift"`
	OK     bool  `json:"ok"`
}

// LedgerService is the only writer of coin balances. Every change updates
// users.coins and appends entries inside the caller's transaction.
type LedgerService struct {
	Store     TxRunner
	Entries   repositories.LedgerRepo
	Users     repositories.UserRepo
	Now       func() time.Time
	RequestID string
}

func (s LedgerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Transfer applies t inside tx: debit, credit and a pair of signed entries.
func (s LedgerService) Transfer(ctx context.Context, tx repositories.LedgerTx, t Transfer) error {
	if t.Amount <= 0 {
		return domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	if err := tx.Debit(ctx, t.From, t.Amount, t.Overdraft); err != nil {
		return err
	}
	if err := tx.Credit(ctx, t.To, t.Amount); err != nil {
		return err
	}

	at := s.now()
	from, to := t.From, t.To
	entries := []models.LedgerEntry{
		{ActorID: t.From, CounterpartID: &to, Amount: -t.Amount, Kind: t.Kind, BookingID: t.BookingID, Note: t.Note, CreatedAt: at},
		{ActorID: t.To, CounterpartID: &from, Amount: t.Amount, Kind: t.Kind, BookingID: t.BookingID, Note: t.Note, CreatedAt: at},
	}
	for i := range entries {
		if err := tx.AppendLedger(ctx, &entries[i]); err != nil {
			return fmt.Errorf("append ledger: %w", err)
		}
	}
	return nil
}

// TopUp credits a user's wallet from outside the system.
func (s LedgerService) TopUp(ctx context.Context, userID, amount int64, note string) (models.LedgerEntry, error) {
	if amount <= 0 || amount > MaxTopUp {
		return models.LedgerEntry{}, domain.ValidationError{Field: "amount", Msg: fmt.Sprintf("must be between 1 and %d", MaxTopUp)}
	}

	entry := models.LedgerEntry{ActorID: userID, Amount: amount, Kind: models.LedgerTopUp, Note: note, CreatedAt: s.now()}
	err := s.Store.WithinTx(ctx, func(tx repositories.BookingTx) error {
		if err := tx.Credit(ctx, userID, amount); err != nil {
			return err
		}
		return tx.AppendLedger(ctx, &entry)
	})
	if err != nil {
		return models.LedgerEntry{}, err
	}
	utils.LogEvent(s.RequestID, "ledger", "topup", fmt.Sprintf("user_id=%d amount=%d", userID, amount))
	return entry, nil
}

func (s LedgerService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.Users.Balance(ctx, nil, userID)
}

func (s LedgerService) History(ctx context.Context, userID int64, page domain.Pagination) ([]models.LedgerEntry, error) {
	return s.Entries.History(ctx, userID, page)
}

// Reconcile reports drift between users.coins and the ledger. It never fixes it.
func (s LedgerService) Reconcile(ctx context.Context, userID int64) (Reconciliation, error) {
	stored, err := s.Users.Balance(ctx, nil, userID)
	if err != nil {
		return Reconciliation{}, err
	}
	sum, err := s.Entries.Sum(ctx, userID)
	if err != nil {
		return Reconciliation{}, err
	}
	r := Reconciliation{UserID: userID, Stored: stored, Ledger: sum, Drift: stored - sum}
	r.OK = r.Drift == 0
	if !r.OK {
		utils.LogEvent(s.RequestID, "ledger", "reconcile", fmt.Sprintf("user_id=%d drift=%d", userID, r.Drift))
	}
	return r, nil
}
