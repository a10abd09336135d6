package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"

	// Authorization errors
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeNotGroupMember          = "NOT_GROUP_MEMBER"
	ErrCodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"

	// Validation errors
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeInvalidRoleTransition = "INVALID_ROLE_TRANSITION"
	ErrCodeFileTooLarge          = "FILE_TOO_LARGE"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Respond writes an error body with an explicit code.
func Respond(c *gin.Context, status int, code, message string) {
	RespondWithDetails(c, status, code, message, nil)
}

// RespondWithDetails is Respond plus a details payload, e.g. the limit a
// request violated.
func RespondWithDetails(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, &APIError{Code: code, Message: message, Details: details})
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func Unauthorized(c *gin.Context, message string) {
	Respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, orDefault(message, "Authentication required"))
}

func Forbidden(c *gin.Context, message string) {
	Respond(c, http.StatusForbidden, ErrCodeForbidden, orDefault(message, "Access denied"))
}

func NotFound(c *gin.Context, message string) {
	Respond(c, http.StatusNotFound, ErrCodeNotFound, orDefault(message, "Resource not found"))
}

func BadRequest(c *gin.Context, message string) {
	Respond(c, http.StatusBadRequest, ErrCodeInvalidInput, orDefault(message, "Invalid request"))
}

func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithDetails(c, http.StatusBadRequest, ErrCodeInvalidInput, orDefault(message, "Invalid request"), details)
}

func Conflict(c *gin.Context, message string) {
	Respond(c, http.StatusConflict, ErrCodeConflict, orDefault(message, "Resource conflict"))
}

// InternalError never echoes internal detail unless the caller passes it.
func InternalError(c *gin.Context, message string) {
	Respond(c, http.StatusInternalServerError, ErrCodeInternalError, orDefault(message, "Internal server error"))
}

func ServiceUnavailable(c *gin.Context, message string) {
	Respond(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, orDefault(message, "Service temporarily unavailable"))
}
