package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/search?from=&to=&date=
func (a API) Search(c *gin.Context) {
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
	date, err := queryDate(c, "date")
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	results, err := a.catalog(c).Search(c.Request.Context(), from, to, date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
