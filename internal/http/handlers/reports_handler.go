package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"bookbus/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /api/operator/bookings/export?format=csv|pdf
func (a API) ExportBookings(c *gin.Context) {
	f, err := bookingFilter(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	rc := middleware.CurrentUser(c)
	f.OperatorID, f.CustomerID = rc.UserID, 0

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	data, filename, contentType, err := a.reports(c).ExportBookings(c.Request.Context(), f, format)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, data)
}
