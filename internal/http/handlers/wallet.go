package handlers

import (
	"net/http"

	"bookbus/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type topUpRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Note   string `json:"note"`
}

// GET /api/wallet
func (a API) Wallet(c *gin.Context) {
	rc := middleware.CurrentUser(c)
	svc := a.ledger(c)
	balance, err := svc.Balance(c.Request.Context(), rc.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	page := queryPage(c)
	history, err := svc.History(c.Request.Context(), rc.UserID, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "history": history, "pagination": page})
}

// POST /api/wallet/topup
func (a API) TopUp(c *gin.Context) {
	var req topUpRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	rc := middleware.CurrentUser(c)
	svc := a.ledger(c)
	entry, err := svc.TopUp(c.Request.Context(), rc.UserID, req.Amount, req.Note)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	balance, err := svc.Balance(c.Request.Context(), rc.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "balance": balance})
}

// GET /api/admin/ledger/:user_id/reconcile
func (a API) Reconcile(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	r, err := a.ledger(c).Reconcile(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
