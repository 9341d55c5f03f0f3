package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-reservation/pkg/domain"
)

// Envelope is the JSON body shape for every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination details.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes 200 with a page of items and pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	})
}

// BadRequest writes 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, string(domain.KindValidation), message)
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, string(domain.KindUnauthorized), message)
}

// Forbidden writes 403.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, string(domain.KindForbidden), message)
}

// Error maps err to a status code. Domain errors keep their message; anything
// else is reported as an opaque 500.
func Error(c *gin.Context, err error) {
	status, code := StatusFor(err)
	message := err.Error()
	var de *domain.DomainError
	if errors.As(err, &de) {
		message = de.Message
	} else {
		_ = c.Error(err)
		message = "internal server error"
	}
	abort(c, status, code, message)
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	switch kind := domain.KindOf(err); kind {
	case domain.KindNotFound:
		return http.StatusNotFound, string(kind)
	case domain.KindConflict:
		return http.StatusConflict, string(kind)
	case domain.KindValidation:
		return http.StatusBadRequest, string(kind)
	case domain.KindForbidden:
		return http.StatusForbidden, string(kind)
	case domain.KindUnauthorized:
		return http.StatusUnauthorized, string(kind)
	case domain.KindLocked:
		return http.StatusLocked, string(kind)
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}
