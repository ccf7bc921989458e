package render

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/logging"
	"github.com/good-yellow-bee/synergy/internal/service"
)

// Error is the body of an API error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeBadRequest       = "BAD_REQUEST"
	CodeConflict         = "CONFLICT"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeRateLimited      = "RATE_LIMITED"
	CodeAccountLocked    = "ACCOUNT_LOCKED"
	CodeValidationFailed = "VALIDATION_FAILED"
)

// Standard errors
var (
	ErrInvalidToken = &Error{
		Code:    CodeUnauthorized,
		Message: "invalid or expired token",
		Status:  http.StatusUnauthorized,
	}

	ErrInternal = &Error{
		Code:    CodeInternalError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrRateLimited = &Error{
		Code:    CodeRateLimited,
		Message: "too many requests",
		Status:  http.StatusTooManyRequests,
	}

	ErrAccountLocked = &Error{
		Code:    CodeAccountLocked,
		Message: "account temporarily locked due to too many failed attempts",
		Status:  http.StatusTooManyRequests,
	}

	ErrInvalidBody = &Error{
		Code:    CodeBadRequest,
		Message: "invalid request body",
		Status:  http.StatusBadRequest,
	}
)

// NewBadRequest creates a bad request error with custom message.
func NewBadRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

// FromService maps a service error to its HTTP form. Store failures and
// anything unrecognised become a generic 500 so driver details never leak.
func FromService(err error) *Error {
	var se *service.Error
	if !errors.As(err, &se) {
		return ErrInternal
	}

	switch se.Kind {
	case service.KindUnauthenticated:
		return &Error{Code: CodeUnauthorized, Message: se.Message, Status: http.StatusUnauthorized}
	case service.KindAccessDenied:
		return &Error{Code: CodeForbidden, Message: se.Message, Status: http.StatusForbidden}
	case service.KindNotFound:
		return &Error{Code: CodeNotFound, Message: se.Message, Status: http.StatusNotFound}
	case service.KindValidation:
		return &Error{Code: CodeValidationFailed, Message: se.Message, Field: se.Field, Status: http.StatusBadRequest}
	case service.KindConflict:
		return &Error{Code: CodeConflict, Message: se.Message, Status: http.StatusConflict}
	default:
		return ErrInternal
	}
}

// ServiceError writes err as an API error response.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := FromService(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logging.Logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	JSONError(w, apiErr)
}
