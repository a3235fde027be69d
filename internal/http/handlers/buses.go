package handlers

import (
	"net/http"

	"bookbus/internal/domain/models"
	"bookbus/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /api/operator/buses
func (a API) ListMyBuses(c *gin.Context) {
	rc := middleware.CurrentUser(c)
	buses, err := a.catalog(c).ListOperatorBuses(c.Request.Context(), rc.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": buses})
}

// POST /api/operator/buses
func (a API) CreateBus(c *gin.Context) {
	var req models.BusInput
	if !BindJSONOrError(c, &req) {
		return
	}
	rc := middleware.CurrentUser(c)
	bus, err := a.catalog(c).CreateBus(c.Request.Context(), rc.UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bus)
}

// PUT /api/operator/buses/:id
func (a API) UpdateBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.BusInput
	if !BindJSONOrError(c, &req) {
		return
	}
	rc := middleware.CurrentUser(c)
	bus, err := a.catalog(c).UpdateBus(c.Request.Context(), rc.UserID, id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

// DELETE /api/operator/buses/:id
func (a API) DeleteBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rc := middleware.CurrentUser(c)
	if err := a.catalog(c).DeleteBus(c.Request.Context(), rc.UserID, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/buses/:id
func (a API) GetBus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	bus, err := a.catalog(c).GetBus(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

// GET /api/buses/:id/route.geojson
func (a API) RouteGeoJSON(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := a.catalog(c).RouteGeoJSON(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// GET /api/buses/:id/seats?date=YYYY-MM-DD[&from=&to=]
// With both from and to only seats taken on an overlapping segment are Booked.
func (a API) SeatMap(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	date, err := queryDate(c, "date")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if date == nil {
		respondError(c, http.StatusBadRequest, "validation_error", "date is required", nil)
		return
	}
	from, err := queryID(c, "from")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	to, err := queryID(c, "to")
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	svc := a.availability()
	var seats []models.SeatStatus
	switch {
	case from != 0 && to != 0:
		seats, err = svc.SegmentSeatMap(c.Request.Context(), id, *date, from, to)
	case from != 0 || to != 0:
		respondError(c, http.StatusBadRequest, "validation_error", "from and to go together", nil)
		return
	default:
		seats, err = svc.SeatMap(c.Request.Context(), id, *date)
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"busId": id, "date": c.Query("date"), "seats": seats})
}
