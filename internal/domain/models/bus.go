package models

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a bitmask of time.Weekday values. Empty means a one-time trip.
type WeekdaySet uint8

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// ParseWeekdays accepts short or long English day names, case-insensitive.
func ParseWeekdays(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		found := false
		for i, w := range weekdayNames {
			if strings.HasPrefix(n, strings.ToLower(w)) {
				s |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown weekday %q", n)
		}
	}
	return s, nil
}

func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

func (s WeekdaySet) Empty() bool { return s&0x7f == 0 }

func (s WeekdaySet) Names() []string {
	out := []string{}
	for i, n := range weekdayNames {
		if s.Has(time.Weekday(i)) {
			out = append(out, n)
		}
	}
	return out
}

// Bus is one schedule instance run by an operator.
type Bus struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	OperatorID    int64       `json:"operatorId"`
	StartTime     time.Time   `json:"startTime"`
	EndTime       time.Time   `json:"endTime"`
	OperatingDays WeekdaySet  `json:"-"`
	Route         []RouteStop `json:"route"`
	Seats         []Seat      `json:"seats,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Days is the JSON view of OperatingDays.
func (b Bus) Days() []string { return b.OperatingDays.Names() }

// SeatByID finds a seat of this bus.
func (b Bus) SeatByID(id int64) (Seat, bool) {
	for _, s := range b.Seats {
		if s.ID == id {
			return s, true
		}
	}
	return Seat{}, false
}

// BusInput is what an operator submits to create or update a bus.
type BusInput struct {
	Name          string           `json:"name" binding:"required"`
	StartTime     time.Time        `json:"startTime" binding:"required"`
	EndTime       time.Time        `json:"endTime" binding:"required"`
	OperatingDays []string         `json:"operatingDays"`
	Route         []RouteStopInput `json:"route"`
	SeatClasses   []SeatClassSpec  `json:"seatClasses"`
}
