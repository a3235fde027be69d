package handlers

import (
	"net/http"
	"strings"

	"bookbus/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/stops?q=
func (a API) ListStops(c *gin.Context) {
	stops, err := a.catalog(c).ListStops(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stops": stops})
}

// POST /api/stops
func (a API) CreateStop(c *gin.Context) {
	var req models.Stop
	if !BindJSONOrError(c, &req) {
		return
	}
	s, err := a.catalog(c).CreateStop(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// GET /api/stops.geojson
func (a API) StopsGeoJSON(c *gin.Context) {
	data, err := a.catalog(c).StopsGeoJSON(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}
