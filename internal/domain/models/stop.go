package models

// Stop is a named place a bus can call at.
type Stop struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (s Stop) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// RouteStop places a Stop on one bus route.
// Order is 1..N along the direction of travel; NextDay marks an arrival on the
// day after departure since ArrivalTime alone cannot tell across midnight.
type RouteStop struct {
	ID          int64  `json:"id"`
	BusID       int64  `json:"busId"`
	Stop        Stop   `json:"stop"`
	Order       int    `json:"order"`
	ArrivalTime string `json:"arrivalTime"`
	NextDay     bool   `json:"nextDay"`
}

// RouteStopInput is one entry of an ordered route submitted by an operator.
type RouteStopInput struct {
	StopID      int64  `json:"stopId" binding:"required"`
	ArrivalTime string `json:"arrivalTime" binding:"required"`
	NextDay     bool   `json:"nextDay"`
}
