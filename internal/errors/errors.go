package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Codes carried in the "code" field of an error body.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func respond(c *gin.Context, status int, code, message, fallback string, details interface{}) {
	if message == "" {
		message = fallback
	}
	c.JSON(status, &APIError{Code: code, Message: message, Details: details})
}

func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, message, "Authentication required", nil)
}

func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, ErrCodeForbidden, message, "Access denied", nil)
}

func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrCodeNotFound, message, "Resource not found", nil)
}

func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message, "Invalid request", nil)
}

// BadRequestWithDetails is BadRequest with a machine-readable details field.
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message, "Invalid request", details)
}

// UnprocessableEntity reports well-formed input that produced no usable result.
func UnprocessableEntity(c *gin.Context, message string) {
	respond(c, http.StatusUnprocessableEntity, ErrCodeInvalidInput, message, "Unprocessable input", nil)
}

func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, ErrCodeConflict, message, "Resource conflict", nil)
}

func TooManyRequests(c *gin.Context, message string) {
	respond(c, http.StatusTooManyRequests, ErrCodeRateLimited, message, "Too many requests", nil)
}

// InternalError sends a 500. The message must never carry storage error text.
func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, ErrCodeInternalError, message, "Internal server error", nil)
}

func ServiceUnavailable(c *gin.Context, message string) {
	respond(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, "Service temporarily unavailable", nil)
}
