package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the unified API response envelope. Every handler, success or
// failure, replies with this shape.
type Body struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes a single field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a structured application error with HTTP status and
// optional field violations.
type AppError struct {
	HTTPStatus int          // HTTP status code (e.g. 400, 404, 500)
	Message    string       // Human-readable error message
	Fields     []FieldError // Field-level violations, validation errors only
}

func (e *AppError) Error() string {
	return e.Message
}

// Pre-defined error constructors, one per taxonomy entry.

// NewAuthentication covers missing, invalid or expired credentials.
func NewAuthentication(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

// NewAuthorization covers a valid caller with an insufficient role.
func NewAuthorization(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

func NewValidation(msg string, fields []FieldError) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg, Fields: fields}
}

// NewDuplicate covers uniqueness conflicts such as adding an existing member.
func NewDuplicate(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Message: msg}
}

// NewDomainInvariant covers rejected operations that would break a domain
// rule, e.g. demoting the workspace owner. Distinct from the generic 403.
func NewDomainInvariant(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnprocessableEntity, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// SuccessMessage sends a 200 OK response with a message and optional data.
func SuccessMessage(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Message: msg, Data: data})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// Error sends an error response. If err is an *AppError its status and
// violations are used; anything else is reported as an opaque internal error
// so unexpected failures never leak details.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Body{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Body{
		Success: false,
		Message: "internal server error",
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Message: msg})
}

func ValidationFailed(c *gin.Context, fields []FieldError) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Message: "validation error", Errors: fields})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Message: msg})
}

func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, Body{Success: false, Message: msg})
}

func DomainInvariant(c *gin.Context, msg string) {
	c.JSON(http.StatusUnprocessableEntity, Body{Success: false, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Message: msg})
}
