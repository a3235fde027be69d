package models

import "time"

type LedgerKind string

const (
	LedgerBooking      LedgerKind = "Booking"
	LedgerCancellation LedgerKind = "Cancellation"
	LedgerTopUp        LedgerKind = "TopUp"
)

// LedgerEntry is one signed movement on an actor's balance.
type LedgerEntry struct {
	ID            int64      `json:"id"`
	ActorID       int64      `json:"actorId"`
	CounterpartID *int64     `json:"counterpartId,omitempty"`
	Amount        int64      `json:"amount"`
	Kind          LedgerKind `json:"kind"`
	BookingID     *int64     `json:"bookingId,omitempty"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
