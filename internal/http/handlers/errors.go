package handlers

import (
	"errors"
	"net/http"

	"bookbus/internal/domain"
	"bookbus/internal/http/middleware"
	"bookbus/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
		})
		return
	}
	c.JSON(status, resp)
}

// rejectionStatus maps booking rejections to HTTP status codes.
var rejectionStatus = map[string]int{
	"invalid_date":         http.StatusUnprocessableEntity,
	"invalid_segment":      http.StatusUnprocessableEntity,
	"seat_unavailable":     http.StatusConflict,
	"insufficient_funds":   http.StatusPaymentRequired,
	"not_cancellable":      http.StatusConflict,
	"forbidden":            http.StatusForbidden,
	"stop_not_found":       http.StatusNotFound,
	"concurrency_conflict": http.StatusConflict,
	"unauthenticated":      http.StatusUnauthorized,
}

// errorAction names the failing request for logs: the route pattern when the
// request was routed, the raw path otherwise.
func errorAction(c *gin.Context) string {
	if c.Request == nil {
		return "request"
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return c.Request.Method + " " + path
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	if code := domain.Code(err); code != "" {
		respondError(c, rejectionStatus[code], code, err.Error(), nil)
		return
	}
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsInternal(err):
		utils.LogError(middleware.GetRequestID(c), "http", errorAction(c), err)
		var ie domain.InternalError
		errors.As(err, &ie)
		respondError(c, http.StatusInternalServerError, "internal_error", ie.Error(), nil)
	case errors.Is(err, domain.ErrRouteCorrupt):
		utils.LogError(middleware.GetRequestID(c), "http", errorAction(c), err)
		respondError(c, http.StatusInternalServerError, "route_corrupt", "bus route data is inconsistent", nil)
	default:
		utils.LogError(middleware.GetRequestID(c), "http", errorAction(c), err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
