package models

type SeatClass string

const (
	SeatGeneral SeatClass = "General"
	SeatSleeper SeatClass = "Sleeper"
	SeatLuxury  SeatClass = "Luxury"
)

// SeatClasses lists classes in roster order.
var SeatClasses = []SeatClass{SeatGeneral, SeatSleeper, SeatLuxury}

// Prefix is the seat-name prefix used when generating a roster.
func (c SeatClass) Prefix() string {
	switch c {
	case SeatSleeper:
		return "S"
	case SeatLuxury:
		return "L"
	default:
		return "G"
	}
}

func (c SeatClass) Valid() bool {
	switch c {
	case SeatGeneral, SeatSleeper, SeatLuxury:
		return true
	}
	return false
}

type Seat struct {
	ID    int64     `json:"id"`
	BusID int64     `json:"busId"`
	Name  string    `json:"name"`
	Class SeatClass `json:"class"`
	Fare  int64     `json:"fare"`
}

// SeatClassSpec asks for Count seats of Class priced at Fare coins.
type SeatClassSpec struct {
	Class SeatClass `json:"class" binding:"required"`
	Count int       `json:"count"`
	Fare  int64     `json:"fare"`
}

type SeatState string

const (
	SeatAvailable SeatState = "Available"
	SeatBooked    SeatState = "Booked"
)

// SeatStatus is one entry of a seat map.
type SeatStatus struct {
	Seat  Seat      `json:"seat"`
	State SeatState `json:"state"`
}
