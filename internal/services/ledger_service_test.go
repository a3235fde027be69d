package services

import (
	"context"
	"testing"
	"time"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferWritesSignedPair(t *testing.T) {
	store := newFakeStore()
	store.coins[1] = 500
	store.coins[2] = 0
	svc := LedgerService{Store: store, Now: func() time.Time { return clock }}
	ctx := context.Background()

	bookingID := int64(77)
	err := store.WithinTx(ctx, func(tx repositories.BookingTx) error {
		return svc.Transfer(ctx, tx, Transfer{From: 1, To: 2, Amount: 120, Kind: models.LedgerBooking, BookingID: &bookingID})
	})
	require.NoError(t, err)

	assert.Equal(t, int64(380), store.balance(1))
	assert.Equal(t, int64(120), store.balance(2))
	require.Len(t, store.ledger, 2)
	payer, payee := store.ledger[0], store.ledger[1]
	assert.Equal(t, int64(-120), payer.Amount)
	assert.Equal(t, int64(2), *payer.CounterpartID)
	assert.Equal(t, int64(120), payee.Amount)
	assert.Equal(t, int64(1), *payee.CounterpartID)
	assert.Equal(t, bookingID, *payee.BookingID)
	assert.Equal(t, clock, payee.CreatedAt)
}

func TestTransferRejectsNonPositiveAmounts(t *testing.T) {
	store := newFakeStore()
	store.coins[1] = 500
	store.coins[2] = 0
	svc := LedgerService{Store: store}
	ctx := context.Background()

	for _, amount := range []int64{0, -5} {
		err := store.WithinTx(ctx, func(tx repositories.BookingTx) error {
			return svc.Transfer(ctx, tx, Transfer{From: 1, To: 2, Amount: amount, Kind: models.LedgerBooking})
		})
		assert.True(t, domain.IsValidation(err))
	}
	assert.Equal(t, int64(500), store.balance(1))
}

func TestTopUp(t *testing.T) {
	store := newFakeStore()
	store.coins[1] = 10
	svc := LedgerService{Store: store, Now: func() time.Time { return clock }}
	ctx := context.Background()

	e, err := svc.TopUp(ctx, 1, 250, "welcome")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerTopUp, e.Kind)
	assert.Nil(t, e.CounterpartID)
	assert.Equal(t, int64(260), store.balance(1))

	_, err = svc.TopUp(ctx, 1, 0, "")
	assert.True(t, domain.IsValidation(err))
	_, err = svc.TopUp(ctx, 1, MaxTopUp+1, "")
	assert.True(t, domain.IsValidation(err))

	_, err = svc.TopUp(ctx, 404, 10, "")
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 1, store.ledgerLen())
}
