package handlers

import (
	"net/http"

	"bookbus/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/admin/bookings/complete?as_of=YYYY-MM-DD
// Marks confirmed bookings travelling before as_of (default today) as completed.
func (a API) CompleteBookings(c *gin.Context) {
	svc := a.bookings(c)
	asOf, err := queryDate(c, "as_of")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	day := svc.Today()
	if asOf != nil {
		day = *asOf
	}
	n, err := svc.AdvanceCompletions(c.Request.Context(), day)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": n, "asOf": utils.FormatDate(day)})
}
