package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/http/middleware"
	"bookbus/internal/repositories"
	"bookbus/internal/utils"

	"github.com/gin-gonic/gin"
)

// bookingPayload accepts either a seats list or the single-seat shorthand.
type bookingPayload struct {
	BusID        int64                `json:"busId" binding:"required"`
	BoardStopID  int64                `json:"boardStopId" binding:"required"`
	AlightStopID int64                `json:"alightStopId" binding:"required"`
	TravelDate   string               `json:"travelDate" binding:"required"`
	Seats        []models.SeatRequest `json:"seats"`
	SeatID       int64                `json:"seatId"`
	Passenger    *models.Passenger    `json:"passenger"`
}

func (p bookingPayload) request(customerID int64) (models.BookingRequest, error) {
	date, err := utils.ParseDate(p.TravelDate)
	if err != nil {
		return models.BookingRequest{}, domain.ValidationError{Field: "travelDate", Msg: "expected YYYY-MM-DD"}
	}
	seats := p.Seats
	if len(seats) == 0 && p.SeatID != 0 {
		sr := models.SeatRequest{SeatID: p.SeatID}
		if p.Passenger != nil {
			sr.Passenger = *p.Passenger
		}
		seats = []models.SeatRequest{sr}
	}
	return models.BookingRequest{
		BusID:        p.BusID,
		CustomerID:   customerID,
		BoardStopID:  p.BoardStopID,
		AlightStopID: p.AlightStopID,
		TravelDate:   date,
		Seats:        seats,
	}, nil
}

// POST /api/bookings
func (a API) CreateBooking(c *gin.Context) {
	var p bookingPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	rc := middleware.CurrentUser(c)
	req, err := p.request(rc.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out, err := a.bookings(c).BookSeats(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	var total int64
	for _, b := range out {
		total += b.Fare
	}
	c.JSON(http.StatusCreated, gin.H{"bookings": out, "total": total})
}

// POST /api/bookings/:id/cancel
func (a API) CancelBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rc := middleware.CurrentUser(c)
	b, err := a.bookings(c).Cancel(c.Request.Context(), id, rc.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b, "refunded": b.Fare})
}

// GET /api/bookings/:id
func (a API) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := a.bookings(c).Get(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/bookings/:id/ticket
func (a API) BookingTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, filename, err := a.reports(c).Ticket(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// GET /api/bookings
// Customers see their own bookings and operators the bookings on their buses.
// Admins may narrow by customer_id and operator_id.
func (a API) ListBookings(c *gin.Context) {
	f, err := bookingFilter(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	rc := middleware.CurrentUser(c)
	switch rc.Role {
	case domain.RoleCustomer:
		f.CustomerID, f.OperatorID = rc.UserID, 0
	case domain.RoleOperator:
		f.OperatorID, f.CustomerID = rc.UserID, 0
	}

	page := queryPage(c)
	list, total, err := repositories.BookingRepo{DB: a.DB}.List(c.Request.Context(), f, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	page.Total = total
	c.JSON(http.StatusOK, gin.H{"bookings": list, "pagination": page})
}

func bookingFilter(c *gin.Context) (models.BookingFilter, error) {
	var f models.BookingFilter
	var err error
	if f.BusID, err = queryID(c, "bus_id"); err != nil {
		return f, err
	}
	if f.CustomerID, err = queryID(c, "customer_id"); err != nil {
		return f, err
	}
	if f.OperatorID, err = queryID(c, "operator_id"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "to"); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st, ok := parseStatus(raw)
		if !ok {
			return f, domain.ValidationError{Field: "status", Msg: "unknown booking status"}
		}
		f.Status = st
	}
	return f, nil
}

func parseStatus(raw string) (models.BookingStatus, bool) {
	for _, s := range []models.BookingStatus{
		models.BookingPending, models.BookingConfirmed, models.BookingCancelled,
		models.BookingCompleted, models.BookingRefunded,
	} {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}
