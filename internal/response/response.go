// Package response provides the HTTP response envelope and the mapping from
// domain error kinds to status codes.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wrenchly/service-booking/internal/domain"
)

// Envelope is the standard response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable code alongside the message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaginatedEnvelope wraps a page of results.
type PaginatedEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

// Success writes a 200 with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 with a page of results.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, PaginatedEnvelope{
		Success: true,
		Data:    items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: string(domain.KindValidation), Message: message},
	})
}

// statusForKind distinguishes state-validity failures (400) from authorization
// failures (403) so clients can render "not allowed for your role" separately
// from "this booking cannot do that right now".
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound, domain.KindIntentNotFound:
		return http.StatusNotFound
	case domain.KindForbidden, domain.KindActorNotAuthorized:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation, domain.KindInvalidTransition, domain.KindExtensionNotPending,
		domain.KindInvalidBookingState, domain.KindNotManualCapture, domain.KindAmountTooSmall:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error maps an application error onto the right status code and envelope.
func Error(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(statusForKind(de.Kind), Envelope{
			Success: false,
			Error:   &ErrorBody{Code: string(de.Kind), Message: de.Message},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: "INTERNAL", Message: "internal server error"},
	})
}
