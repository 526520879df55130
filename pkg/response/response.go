// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventdesk/backend/pkg/apperr"
)

// Body is the API response envelope.
type Body struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Body{Success: true, Data: data})
}

func failure(c *gin.Context, status int, msg string) {
	c.JSON(status, Body{Error: msg})
}

// OK sends 200 with data.
func OK(c *gin.Context, data any) { success(c, http.StatusOK, data) }

// Created sends 201 with data.
func Created(c *gin.Context, data any) { success(c, http.StatusCreated, data) }

// NoContent sends 204 with no body.
func NoContent(c *gin.Context) { c.Status(http.StatusNoContent) }

func BadRequest(c *gin.Context, msg string)         { failure(c, http.StatusBadRequest, msg) }
func Unauthorized(c *gin.Context, msg string)       { failure(c, http.StatusUnauthorized, msg) }
func Forbidden(c *gin.Context, msg string)          { failure(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)           { failure(c, http.StatusNotFound, msg) }
func ServiceUnavailable(c *gin.Context, msg string) { failure(c, http.StatusServiceUnavailable, msg) }
func Internal(c *gin.Context, msg string)           { failure(c, http.StatusInternalServerError, msg) }

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:   http.StatusNotFound,
	apperr.KindConflict:   http.StatusConflict,
	apperr.KindValidation: http.StatusBadRequest,
	apperr.KindForbidden:  http.StatusForbidden,
}

// Error writes err with the status of its apperr kind.
// Unclassified errors become a bare 500 so causes never reach the client.
func Error(c *gin.Context, err error) {
	status, ok := statusByKind[apperr.KindOf(err)]
	if !ok {
		Internal(c, "internal server error")
		return
	}
	failure(c, status, apperr.MessageOf(err))
}
