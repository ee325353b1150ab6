package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code int, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common errors
var (
	// 400 Bad Request
	ErrBadRequest         = New(http.StatusBadRequest, "Invalid request")
	ErrValidation         = New(http.StatusBadRequest, "Validation failed")
	ErrMovieSourceMissing = New(http.StatusBadRequest, "movie_source is required")
	ErrRoomInactive       = New(http.StatusBadRequest, "Room is no longer active")

	// 401 Unauthorized
	ErrUnauthorized    = New(http.StatusUnauthorized, "Unauthorized")
	ErrInvalidToken    = New(http.StatusUnauthorized, "Invalid token")
	ErrTokenExpired    = New(http.StatusUnauthorized, "Token has expired")
	ErrInvalidPassword = New(http.StatusUnauthorized, "Invalid password")

	// 403 Forbidden
	ErrForbidden         = New(http.StatusForbidden, "Access denied")
	ErrNotHost           = New(http.StatusForbidden, "Only host can control playback")
	ErrNotParticipant    = New(http.StatusForbidden, "User not in room")
	ErrChatDisabled      = New(http.StatusForbidden, "Chat is disabled in this room")
	ErrReactionsDisabled = New(http.StatusForbidden, "Reactions are disabled in this room")

	// 404 Not Found
	ErrNotFound      = New(http.StatusNotFound, "Resource not found")
	ErrRoomNotFound  = New(http.StatusNotFound, "Room not found")
	ErrMovieNotFound = New(http.StatusNotFound, "Movie not found")

	// 409 Conflict
	ErrConflict  = New(http.StatusConflict, "Resource conflict")
	ErrStaleRoom = New(http.StatusConflict, "Room was modified concurrently")

	// 429 Too Many Requests
	ErrTooManyRequests = New(http.StatusTooManyRequests, "Too many requests, try again later")

	// 503 Service Unavailable (retryable)
	ErrStoreUnavailable = New(http.StatusServiceUnavailable, "Storage temporarily unavailable")
	ErrLockTimeout      = New(http.StatusServiceUnavailable, "Room is busy, try again")

	// 500 Internal Server Error
	ErrInternal = New(http.StatusInternalServerError, "Internal server error")
)

// RoomFull builds the capacity error with the observed occupancy
func RoomFull(current, max int) *AppError {
	return Newf(http.StatusConflict, "Room is full (%d/%d)", current, max)
}

// IsRetryable reports whether the caller may safely retry the operation
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == http.StatusServiceUnavailable
	}
	return false
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetHTTPStatus returns the HTTP status code for an error
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// GetMessage returns the error message
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
