package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingCompleted BookingStatus = "Completed"
	BookingRefunded  BookingStatus = "Refunded"
)

// Active reports whether a booking in this status still holds its seat.
func (s BookingStatus) Active() bool {
	return s != BookingCancelled && s != BookingRefunded
}

// Passenger is the traveller on one booked seat.
type Passenger struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking is one seat for one segment on one travel date.
type Booking struct {
	ID           int64         `json:"id"`
	Reference    string        `json:"reference"`
	BusID        int64         `json:"busId"`
	SeatID       int64         `json:"seatId"`
	SeatName     string        `json:"seatName,omitempty"`
	CustomerID   int64         `json:"customerId"`
	OperatorID   int64         `json:"operatorId"`
	TravelDate   time.Time     `json:"travelDate"`
	BoardStopID  int64         `json:"boardStopId"`
	BoardOrder   int           `json:"boardOrder"`
	AlightStopID int64         `json:"alightStopId"`
	AlightOrder  int           `json:"alightOrder"`
	Fare         int64         `json:"fare"`
	Status       BookingStatus `json:"status"`
	Passenger    Passenger     `json:"passenger"`
	CreatedAt    time.Time     `json:"createdAt"`
	CancelledAt  *time.Time    `json:"cancelledAt,omitempty"`
}

// SeatRequest pairs one seat with its passenger.
type SeatRequest struct {
	SeatID    int64     `json:"seatId" binding:"required"`
	Passenger Passenger `json:"passenger"`
}

// BookingRequest asks for one or more seats on the same segment and date.
type BookingRequest struct {
	BusID        int64         `json:"busId" binding:"required"`
	CustomerID   int64         `json:"-"`
	BoardStopID  int64         `json:"boardStopId" binding:"required"`
	AlightStopID int64         `json:"alightStopId" binding:"required"`
	TravelDate   time.Time     `json:"-"`
	Seats        []SeatRequest `json:"seats" binding:"required"`
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	CustomerID int64
	OperatorID int64
	BusID      int64
	Status     BookingStatus
	From       *time.Time
	To         *time.Time
}
