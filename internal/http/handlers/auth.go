package handlers

import (
	"net/http"

	"bookbus/internal/http/middleware"
	"bookbus/internal/repositories"
	"bookbus/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type resendRequest struct {
	Email string `json:"email" binding:"required"`
}

// POST /api/auth/register
func (a API) Register(c *gin.Context) {
	var req services.RegisterInput
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := a.auth(c).StartRegistration(c.Request.Context(), req); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "verification code sent", "email": req.Email})
}

// POST /api/auth/verify
func (a API) Verify(c *gin.Context) {
	var req verifyRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := a.auth(c).Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// POST /api/auth/resend
func (a API) Resend(c *gin.Context) {
	var req resendRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := a.auth(c).Resend(c.Request.Context(), req.Email); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "verification code sent"})
}

// POST /api/auth/login
func (a API) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	token, u, err := a.auth(c).Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}

// GET /api/auth/me
func (a API) Me(c *gin.Context) {
	rc := middleware.CurrentUser(c)
	u, err := repositories.UserRepo{DB: a.DB}.Get(c.Request.Context(), rc.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
